// Package game describes the browser games the warden can drive and
// implements the drivers that do the driving.
//
// A Profile bundles everything a driver needs to know about one game:
// the page URL, a readiness probe, and the JavaScript snippets for
// loading a save code, reading it back, and sampling progress. The
// built-in profile targets Cookie Clicker beta; YAML, TOML or JSON
// files discovered by glob can replace it without code changes.
//
// Drivers live in subpackages: webdriver speaks the W3C wire protocol
// to a real browser, sim runs a small scripted game in-process for
// development and tests. Both satisfy session.Connector.
package game

// Package webdriver drives a real browser over the W3C WebDriver wire
// protocol.
//
// The Client wraps resty with retrying transport, rate limiting and a
// circuit breaker, and exposes just the endpoints a game session needs:
// session create/delete, navigate, synchronous script execution, page
// source and screenshots. Save codes travel as script arguments in the
// wire payload so arbitrary content cannot break the script.
//
// The Connector boots a session against a game.Profile: create browser,
// load the page, wait for the ready selector, inject the save code,
// reload. Readiness polling is bounded; a page that never shows the
// selector yields ErrReadyTimeout instead of spinning forever.
package webdriver

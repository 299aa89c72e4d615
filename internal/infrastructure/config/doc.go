// Package config loads warden configuration from the environment.
//
// Every knob has a default that works for local development against a
// chromedriver on localhost; a containerized deployment overrides the
// handful it cares about:
//
//	PORT=8600 DATA_DIR=/var/lib/warden DRIVER_URL=http://chromedriver:4444 wardend
//
// DRIVER selects the game driver: "webdriver" drives a real browser,
// "sim" runs the in-process simulation and needs no external services.
// Load validates the result; LoadOrDefault falls back to defaults when
// the environment is unusable.
package config

// Package sim runs a scripted idle game in-process so the warden can be
// developed and tested without a browser.
//
// The simulation boots a goja VM with the page surface the default
// profile expects (a Game object with storage hooks and progress
// counters) and executes the profile's own load, save, count and rate
// scripts against it. Save codes minted by the simulation carry its
// state; foreign codes pass through verbatim, which keeps save codes as
// opaque to the simulation as they are to a real browser.
package sim

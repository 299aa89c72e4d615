// Package scheduler runs the periodic snapshot loop.
//
// Each tick asks the coordinator for a snapshot. An inactive session is
// logged at info and skipped; any other failure is logged at error and
// the loop keeps going. After a successful snapshot the scheduler
// samples game progress once to feed the trend window. The loop exits
// only when its context is canceled.
package scheduler

// Package availability computes bookable free slots from calendar busy data.
//
// The pieces compose leaf-first: a Window describes one business day's open
// range, Merge clips and coalesces raw busy intervals against a bound,
// FreeSlots subtracts the merged busy set from a window, and Scheduler walks
// forward over business days until enough days with free time are found.
//
// All arithmetic happens in a single *time.Location configured by the caller.
// Busy intervals are never cached; every scan queries the provider afresh.
package availability

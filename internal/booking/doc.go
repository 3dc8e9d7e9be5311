// Package booking creates conflict-checked calendar events.
//
// Coordinator.Book follows a look-then-book protocol: under a per-calendar
// lock it queries the busy intervals covering the requested range and only
// inserts the event when the range is free. A conflicting range produces a
// rejected Result and no write. Details projects an existing event into the
// response shape returned to tool callers.
//
// The lock is pluggable. KeyedMutex serializes bookings inside one process;
// RedisLocker extends the guarantee across processes sharing a Redis.
package booking

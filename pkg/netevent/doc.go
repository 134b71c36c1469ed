// Package netevent provides the types and pure read-side functions for
// captured network traffic.
//
// This package serves netlens users who need to inspect what HTTP calls an
// application made, how long they took, and how they ended. It is distinct
// from operational logging (which uses log/slog for platform debugging).
//
// # Core Types
//
// Event is the central type representing one observed HTTP call. An event
// is created in a pending state when the call starts and receives exactly
// one terminal update (status or error) when the call resolves.
//
// # Read Side
//
// FilterEvents, ComputeStats, UniqueHosts and UniqueMethods are pure
// functions over an event slice. They never mutate their input and hold no
// state, so callers can run them against any snapshot at any time.
//
// # Deduplication
//
// Deduper collapses duplicate request-start observations of the same
// method+url seen within a short trailing window. It exists because two
// independent instrumentation paths may report the same logical call.
//
// # Package Design
//
// This is a leaf package with no internal dependencies, allowing it to be
// imported by any package without creating import cycles.
package netevent

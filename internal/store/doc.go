// Package store defines interfaces for persisting memorization records and
// streak state. These interfaces abstract the underlying storage mechanism
// from the engine so the same scheduling rules run against an in-memory
// map, an embedded database on the device, or a PostgreSQL server.
//
// Every mutating operation is expressed as Modify: the store reads the
// current value, hands it to a caller supplied function, and writes the
// result back inside one critical section for that key. Implementations
// choose the primitive (mutex, transaction lock, optimistic transaction),
// but none may let two Modify calls on the same key interleave.
package store

// Package sqlite implements store.Store on an embedded SQLite file for
// single-device use. The schema is created on Open.
package sqlite

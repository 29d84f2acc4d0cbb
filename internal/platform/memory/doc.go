// Package memory provides a process-local implementation of store.Store.
// It backs the CLI's scratch mode and most service tests.
package memory

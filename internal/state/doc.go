// Package state holds the process's currently trusted endpoint.
//
// # Lifecycle
//
//	unset ──Set──▶ resolved ──Clear──▶ unset ──Set──▶ resolved ...
//
// The slot starts unset, is set by every successful resolution, and is
// cleared only when a request against it fails. Any healthy endpoint is as
// good as another, so concurrent writers simply overwrite each other.
//
// # Concurrency
//
// Store uses a sync.RWMutex. Load and Snapshot take the read lock and return
// copies; Set and Clear take the write lock. Readers see either the old or
// the new value, never a mix.
//
// The resolver owns its Store and never hands out a pointer to it, so the
// only writers are Resolver.Resolve and Resolver.Invalidate.
package state

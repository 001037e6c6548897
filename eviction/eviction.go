package eviction

/*
This file defines how the cache decides what to remove when it runs out of space.
*/

/*
Policy is the interface the eviction strategy must follow.

The cache does NOT care how eviction works internally.
It only calls these methods, always under the cache's lock, so the
policy needs no synchronization of its own.
*/
type Policy interface {

	// OnGet is called whenever a user id is read from the cache.
	//
	// LRU needs to know what was accessed recently, so reads reorder
	// the internal bookkeeping. This also guarantees that entries
	// touched inside the same locked operation that later triggers an
	// eviction pass are already marked recent before any victim is picked.
	OnGet(userID string)

	// OnPut is called whenever a user id is written to the cache.
	//
	// New ids enter the bookkeeping as most recently used; overwrites
	// of existing ids count as an access.
	OnPut(userID string)

	// Remove is called when a user id is explicitly removed
	// from the cache (not evicted).
	//
	// This allows the policy to clean up its internal bookkeeping
	// for that id.
	Remove(userID string)

	// Evict is called when the cache is over capacity and needs space.
	//
	// It returns the user id that should be dropped, or "" when there
	// is nothing to evict. The cache then actually removes the entry
	// from storage.
	Evict() string
}

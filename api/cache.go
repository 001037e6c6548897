package api

import (
	"context"

	"github.com/lumenchat/avatar-cache/notify"
	"github.com/lumenchat/avatar-cache/types"
)

/*
ProfileCache defines the PUBLIC API of the profile-picture cache.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details (storage, LRU eviction, staleness, the refresh queue, broadcasting)
are hidden behind this interface.

No method ever returns an error: missing users are represented as
absence, and the only failing operation in the subsystem (the external
profile lookup) is swallowed inside the refresh scheduler.
*/
type ProfileCache interface {

	/*
		Get retrieves the cached avatar URL for a user.

		BEHAVIOR:
		---------
		1. If the user has an entry:
		   - Return its value immediately, even when stale
		   - A stale entry additionally schedules a background refresh

		2. If the user has NO entry:
		   - Return ("", false)
		   - Nothing is fetched; the cache is an acceleration layer,
		     populating it is the caller's job (see Update)

		An empty string with ok == true means the user is known to have
		no avatar, which is different from not being cached at all.
	*/
	Get(userID string) (value string, ok bool)

	/*
		Update stores an authoritative avatar URL for a user.

		BEHAVIOR:
		---------
		- Inserts or overwrites the entry as fresh
		- Runs the eviction pass when the cache is over capacity
		- Broadcasts the new snapshot to all subscribers
	*/
	Update(userID, avatarURL string)

	/*
		Invalidate marks a user's entry stale without removing it.

		Reads keep serving the old value while the refresh scheduler
		fetches a new one. Safe no-op for users with no entry.
	*/
	Invalidate(userID string)

	/*
		Remove deletes a user's entry and any pending refresh intent.

		This operation is idempotent:
		- Removing a non-existing user is safe
	*/
	Remove(userID string)

	// Clear removes all entries, empties the refresh queue and
	// broadcasts an empty snapshot.
	Clear()

	// Snapshot returns a defensive copy of the current contents.
	Snapshot() map[string]string

	/*
		Stats reports cache totals, computed fresh on every call.

		WHY THIS IS IMPORTANT:
		----------------------
		- Debugging
		- Monitoring cache behavior
		- Evaluating TTL and capacity configuration
	*/
	Stats() types.Stats

	// SetBackgroundRefresh toggles whether invalidations and stale
	// reads may enqueue background refreshes.
	SetBackgroundRefresh(enabled bool)

	// Subscribe registers an observer that receives the full snapshot
	// after every mutation. Slow observers never block mutations.
	Subscribe() (<-chan notify.Snapshot, func())

	// RefreshNow drains the refresh queue synchronously.
	RefreshNow(ctx context.Context)

	/*
		Close gracefully shuts down the cache.

		BEHAVIOR:
		---------
		- Stops the background refresh worker
		- Terminates all subscriptions

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}

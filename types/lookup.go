package types

import "context"

// Lookup is the contract between the cache and the external profile service.
type Lookup interface {

	/*
		Fetch asks the profile service for the authoritative avatar URL of
		one user.

		1. Refresh scheduler picks a stale user id from its queue
		2. Scheduler calls Fetch(ctx, userID)
		3. Lookup talks to the profile backend (API, DB, ...)
		4. Scheduler writes the result back into the cache

		An empty string with a nil error is a valid answer: it means the
		user is known to have no avatar. A non-nil error means the lookup
		failed and the cache keeps whatever it already had.
	*/
	Fetch(ctx context.Context, userID string) (string, error)
}

// Package lookup provides implementations of the profile-lookup
// capability the refresh scheduler consumes.
package lookup

import (
	"context"

	"github.com/lumenchat/avatar-cache/types"
)

// Func adapts a plain function to the Lookup interface, the way
// http.HandlerFunc adapts handlers. Handy for tests and for callers
// whose profile source is already a function.
type Func func(ctx context.Context, userID string) (string, error)

var _ types.Lookup = (Func)(nil)

func (f Func) Fetch(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

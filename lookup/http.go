package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/lumenchat/avatar-cache/types"
)

/*
HTTPLookup fetches avatar URLs from a profile service over HTTP.

Wire contract:
--------------
GET {BaseURL}/profiles/{userID}/avatar

- 200 → JSON body {"avatarUrl": "https://..."}; an empty or missing
  field means the user is known to have no avatar
- 404 → the user has no avatar record; reported as ("", nil), which the
  cache stores as a real "no avatar" value
- anything else is a failure

Transport errors and 5xx responses are retried with backoff. The cache
spec leaves timeouts and retries to the collaborator's contract, so they
live here and never in the refresh scheduler: a lookup that ultimately
fails just leaves the stale entry in place.
*/
type HTTPLookup struct {
	BaseURL string
	Client  *http.Client

	// Retry tuning for transient failures.
	Attempts uint
	Delay    time.Duration
}

var _ types.Lookup = (*HTTPLookup)(nil)

// NewHTTPLookup creates a lookup client with sensible defaults.
func NewHTTPLookup(baseURL string) *HTTPLookup {
	return &HTTPLookup{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   &http.Client{Timeout: 10 * time.Second},
		Attempts: 3,
		Delay:    100 * time.Millisecond,
	}
}

// Fetch asks the profile service for one user's avatar URL, retrying
// transient failures.
func (l *HTTPLookup) Fetch(ctx context.Context, userID string) (string, error) {
	return retry.DoWithData(
		func() (string, error) { return l.fetchOnce(ctx, userID) },
		retry.Attempts(l.Attempts),
		retry.Delay(l.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func (l *HTTPLookup) fetchOnce(ctx context.Context, userID string) (string, error) {
	endpoint := l.BaseURL + "/profiles/" + url.PathEscape(userID) + "/avatar"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No avatar record is a value, not an error.
		return "", nil
	case resp.StatusCode != http.StatusOK:
		return "", &statusError{code: resp.StatusCode}
	}

	var body struct {
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding avatar response for %s: %w", userID, err)
	}
	return body.AvatarURL, nil
}

// statusError marks a non-2xx response so the retry predicate can tell
// server-side hiccups apart from permanent client errors.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("profile service returned %d %s", e.code, http.StatusText(e.code))
}

// isTransient reports whether a failed attempt is worth retrying:
// transport errors and 5xx responses are, 4xx responses are not.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	return true
}

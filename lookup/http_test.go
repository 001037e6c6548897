package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastLookup(baseURL string) *HTTPLookup {
	l := NewHTTPLookup(baseURL)
	l.Delay = time.Millisecond
	return l
}

func TestFetchDecodesAvatarURL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profiles/u1/avatar", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"avatarUrl":"https://cdn.example/u1.jpg"}`))
	}))
	defer srv.Close()

	v, err := newFastLookup(srv.URL).Fetch(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/u1.jpg", v)
}

func TestFetchEscapesUserID(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profiles/user%2Fwith%2Fslashes/avatar", r.URL.RawPath)
		w.Write([]byte(`{"avatarUrl":"x"}`))
	}))
	defer srv.Close()

	_, err := newFastLookup(srv.URL).Fetch(context.Background(), "user/with/slashes")
	require.NoError(t, err)
}

func TestNotFoundMeansNoAvatar(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	v, err := newFastLookup(srv.URL).Fetch(context.Background(), "u1")
	require.NoError(t, err, "no avatar record is a value, not an error")
	assert.Empty(t, v)
}

func TestEmptyFieldMeansNoAvatar(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	v, err := newFastLookup(srv.URL).Fetch(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestServerErrorsAreRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "hiccup", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"avatarUrl":"https://cdn.example/u1.jpg"}`))
	}))
	defer srv.Close()

	v, err := newFastLookup(srv.URL).Fetch(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/u1.jpg", v)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newFastLookup(srv.URL).Fetch(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx is permanent, retrying cannot help")
}

func TestExhaustedRetriesReturnLastError(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newFastLookup(srv.URL).Fetch(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "500")
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()
	lk := Func(func(ctx context.Context, userID string) (string, error) {
		return "https://cdn.example/" + userID + ".jpg", nil
	})

	v, err := lk.Fetch(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/u9.jpg", v)
}

package types

/*
Stats represents a point-in-time report over the whole cache.

The struct is intentionally minimal:
- No internal locking
- No atomic counters
- It is computed under the cache's lock and returned by value

ExpiredEntries counts entries stale at the instant of the scan;
TotalAccessCount sums reads across all resident entries.
*/
type Stats struct {
	TotalEntries             int
	ExpiredEntries           int
	TotalAccessCount         int64
	RefreshQueueSize         int
	BackgroundRefreshEnabled bool
}

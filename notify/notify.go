package notify

import "sync"

/*
This file implements the broadcast side of the cache.

Every mutation of the cache publishes the full snapshot of its contents
to every subscriber. UI layers that render avatars subscribe once and
redraw from snapshots instead of polling the cache.

Design constraints:
- Multiple independent subscribers
- A slow subscriber must never block a fast one, or the mutating caller
- No replay: whoever subscribes after an emission does not see it
*/

// Snapshot is a point-in-time copy of the cache's user id → avatar URL
// contents. Each subscriber receives its own map; mutating it is safe.
type Snapshot map[string]string

// Notifier fans snapshots out to subscribers. It is safe for concurrent
// use; its lock is internal and never held while delivering.
type Notifier struct {
	mu     sync.Mutex
	subs   map[uint64]chan Snapshot
	nextID uint64
	closed bool
}

func New() *Notifier {
	return &Notifier{subs: make(map[uint64]chan Snapshot)}
}

// Subscribe registers a new observer and returns its channel together
// with a cancel function. Cancel is idempotent and closes the channel,
// so a range loop over the subscription terminates cleanly.
func (n *Notifier) Subscribe() (<-chan Snapshot, func()) {
	// Buffer of one: Publish replaces a pending snapshot instead of
	// blocking, so a subscriber that falls behind skips straight to the
	// latest state. For full-snapshot payloads intermediate states carry
	// no information the final one doesn't.
	ch := make(chan Snapshot, 1)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Active reports whether anyone is subscribed. Producers use this to
// skip building snapshot payloads nobody would receive.
func (n *Notifier) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs) > 0
}

// Publish delivers snap to every current subscriber without blocking.
// If a subscriber has not consumed the previous snapshot yet, that
// stale snapshot is dropped in favor of the new one (latest wins).
func (n *Notifier) Publish(snap Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is lagging: evict the buffered snapshot and
			// try again. The second send only fails if the subscriber
			// consumed in between, in which case the buffer is free on
			// the next Publish anyway.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Close terminates every subscription. Further Publish calls are no-ops
// and further Subscribe calls return an already-closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}

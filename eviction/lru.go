// This file implements LRU eviction.

package eviction

// lruNode represents ONE user id inside the LRU structure. We use a doubly-linked list to track usage order.
type lruNode struct {
	// id is the user id this node represents
	id string

	// prev points to the node that was used just after this one
	prev *lruNode

	// next points to the node that was used just before this one
	next *lruNode
}

// lru is the concrete implementation of the LRU eviction policy.
//
// Avatar traffic is a textbook LRU workload: a small set of visible
// profiles is read over and over while a list scrolls, so the ids
// touched most recently are the ones most likely to be read next.
// Evicting the coldest id minimizes churn for that pattern. Ties
// (ids never read since insertion) fall out in insertion order, which
// keeps eviction deterministic.
type lru struct {
	// nodes maps user ids to their corresponding list nodes.
	// This allows us to find and move nodes in O(1) time.
	nodes map[string]*lruNode

	// head points to the MOST recently used id
	head *lruNode

	// tail points to the LEAST recently used id
	tail *lruNode
}

// NewLRU returns a least-recently-used eviction policy.
func NewLRU() Policy {
	return &lru{nodes: make(map[string]*lruNode)}
}

// OnGet is called whenever a user id is read from the cache. If an id is accessed, it becomes "recently used".
// So we: Find its node and move it to the front of the list
func (l *lru) OnGet(id string) {
	if n, ok := l.nodes[id]; ok {
		l.moveToFront(n)
	}
}

// OnPut is called whenever a user id is written to the cache.
// - If the id already exists, the overwrite counts as an access
// - If the id is new: Create a node and add it to the front (most recently used)
func (l *lru) OnPut(id string) {
	if n, ok := l.nodes[id]; ok {
		l.moveToFront(n)
		return
	}
	n := &lruNode{id: id}
	l.nodes[id] = n
	l.addFront(n)
}

// Evict is called when the cache is over capacity. Removes the LEAST recently used id.
// That id is always at the tail of the list.
func (l *lru) Evict() string {
	if l.tail == nil {
		// Nothing to evict
		return ""
	}

	// Least recently used id
	id := l.tail.id

	// Remove from linked list
	l.remove(l.tail)

	// Remove from map
	delete(l.nodes, id)
	return id
}

// Remove is called when a user id is explicitly removed (not evicted due to capacity).
// This keeps LRU's internal state consistent.
func (l *lru) Remove(id string) {
	if n, ok := l.nodes[id]; ok {
		l.remove(n)
		delete(l.nodes, id)
	}
}

// addFront adds a node to the front of the linked list. This marks the node as "most recently used".
func (l *lru) addFront(n *lruNode) {
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n

	// If the list was empty, head and tail are the same
	if l.tail == nil {
		l.tail = n
	}
}

// remove removes a node from the linked list.
// It correctly updates:
// - Previous node's next pointer
// - Next node's prev pointer
// - Head and tail if needed
func (l *lru) remove(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// moveToFront is used when an id is accessed.
// 1. Remove node from its current position
// 2. Add it to the front
// This marks it as most recently used.
func (l *lru) moveToFront(n *lruNode) {
	l.remove(n)
	l.addFront(n)
}

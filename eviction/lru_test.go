package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvictsInInsertionOrderWithoutReads(t *testing.T) {
	t.Parallel()
	p := NewLRU()

	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	// No reads: ties break by insertion order, oldest first.
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "", p.Evict(), "empty policy has nothing to evict")
}

func TestReadMakesIDRecent(t *testing.T) {
	t.Parallel()
	p := NewLRU()

	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")
	p.OnGet("a")

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "a", p.Evict())
}

func TestOverwriteCountsAsAccess(t *testing.T) {
	t.Parallel()
	p := NewLRU()

	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("a") // overwrite bumps "a" to most recent

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "a", p.Evict())
}

func TestGetOnUnknownIDIsNoop(t *testing.T) {
	t.Parallel()
	p := NewLRU()

	p.OnGet("ghost")
	assert.Equal(t, "", p.Evict())
}

func TestRemoveCleansBookkeeping(t *testing.T) {
	t.Parallel()
	p := NewLRU()

	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	p.Remove("b")
	p.Remove("b") // idempotent

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestRemoveHeadAndTail(t *testing.T) {
	t.Parallel()
	p := NewLRU()

	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	p.Remove("a") // tail (least recent)
	p.Remove("c") // head (most recent)

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "", p.Evict())
}

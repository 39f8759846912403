// Package instance caches, per live primary instance, which variant it
// resolved to on its first frame.
package instance

import (
	"sync/atomic"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

// DefaultCapacity matches the engine's maximum concurrent primary instances.
const DefaultCapacity = 8

// Resolution is the outcome of a slot's one resolution attempt.
type Resolution struct {
	// Matched is false when no variant claimed the instance's variant id.
	Matched bool
	Index   int
	Frame   host.FrameHook
}

// Cache is a fixed-size table of slots indexed by engine entry id.
//
// Each slot is replaced atomically, so callbacks for different entries never
// contend. A nil slot is uninitialized.
type Cache struct {
	slots []atomic.Pointer[Resolution]
}

// New creates a cache with capacity slots (DefaultCapacity when <= 0).
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{slots: make([]atomic.Pointer[Resolution], capacity)}
}

// Capacity reports the number of slots.
func (c *Cache) Capacity() int {
	if c == nil {
		return 0
	}
	return len(c.slots)
}

// Reset returns every slot to uninitialized.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	for i := range c.slots {
		c.slots[i].Store(nil)
	}
}

// Load returns the slot's resolution and whether the slot is initialized.
// Out-of-range entries report uninitialized.
func (c *Cache) Load(entry int) (Resolution, bool) {
	slot := c.slot(entry)
	if slot == nil {
		return Resolution{}, false
	}
	res := slot.Load()
	if res == nil {
		return Resolution{}, false
	}
	return *res, true
}

// Index returns the resolved variant index of an initialized, matched slot.
func (c *Cache) Index(entry int) (int, bool) {
	res, ok := c.Load(entry)
	if !ok || !res.Matched {
		return 0, false
	}
	return res.Index, true
}

// Store initializes the slot. It reports false for out-of-range entries.
func (c *Cache) Store(entry int, res Resolution) bool {
	slot := c.slot(entry)
	if slot == nil {
		return false
	}
	slot.Store(&res)
	return true
}

// InRange reports whether entry addresses a slot.
func (c *Cache) InRange(entry int) bool {
	return c.slot(entry) != nil
}

func (c *Cache) slot(entry int) *atomic.Pointer[Resolution] {
	if c == nil || entry < 0 || entry >= len(c.slots) {
		return nil
	}
	return &c.slots[entry]
}

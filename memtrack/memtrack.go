// Package memtrack maintains an in-process table of outstanding GPU memory
// allocations keyed by device-memory handle, with aggregate and per-tag byte
// counters.
//
// A Tracker is an explicitly constructed, explicitly passed context object:
// there is no package-level singleton and no hidden global state, so tests
// and subsystems can run independent instances side by side. It has no data
// or control dependency on the capture pipeline; the two merely share this
// umbrella library.
package memtrack

import (
	"fmt"
	"io"
	"sort"
	"sync"

	vk "github.com/vulkan-go/vulkan"
)

// AllocationInfo describes one outstanding allocation.
type AllocationInfo struct {
	Size            vk.DeviceSize
	MemoryTypeIndex uint32
	Tag             string
}

// Tracker records GPU memory allocations and frees. All methods are safe
// for concurrent use; a single mutex guards the whole table.
type Tracker struct {
	mu          sync.Mutex
	allocations map[vk.DeviceMemory]AllocationInfo
	tagged      map[string]vk.DeviceSize
	total       vk.DeviceSize
	peak        vk.DeviceSize
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		allocations: make(map[vk.DeviceMemory]AllocationInfo),
		tagged:      make(map[string]vk.DeviceSize),
	}
}

// Record notes a new allocation. An empty tag is allowed and contributes
// only to the aggregate counters. Recording the same handle twice replaces
// the previous entry without adjusting counters for it; callers are expected
// to Release first.
func (t *Tracker) Record(memory vk.DeviceMemory, size vk.DeviceSize, memoryTypeIndex uint32, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.allocations[memory] = AllocationInfo{
		Size:            size,
		MemoryTypeIndex: memoryTypeIndex,
		Tag:             tag,
	}

	t.total += size
	if t.total > t.peak {
		t.peak = t.total
	}
	if tag != "" {
		t.tagged[tag] += size
	}
}

// Release notes that an allocation was freed. Unknown handles are ignored.
func (t *Tracker) Release(memory vk.DeviceMemory) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.allocations[memory]
	if !ok {
		return
	}
	t.total -= info.Size
	if info.Tag != "" {
		t.tagged[info.Tag] -= info.Size
	}
	delete(t.allocations, memory)
}

// TotalAllocated returns the sum of all outstanding allocation sizes.
func (t *Tracker) TotalAllocated() vk.DeviceSize {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// PeakAllocated returns the highest value TotalAllocated has reached since
// construction or the last Reset.
func (t *Tracker) PeakAllocated() vk.DeviceSize {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peak
}

// ByTag returns the outstanding bytes recorded under tag.
func (t *Tracker) ByTag(tag string) vk.DeviceSize {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tagged[tag]
}

// Count returns the number of outstanding allocations.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.allocations)
}

// Reset drops every entry and zeroes all counters, including the peak.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allocations = make(map[vk.DeviceMemory]AllocationInfo)
	t.tagged = make(map[string]vk.DeviceSize)
	t.total = 0
	t.peak = 0
}

// sortedTags returns the tags with a nonzero outstanding size, sorted.
// Callers must hold t.mu.
func (t *Tracker) sortedTags() []string {
	tags := make([]string, 0, len(t.tagged))
	for tag, size := range t.tagged {
		if size > 0 {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// WriteSummary writes a human-readable summary of the current state.
func (t *Tracker) WriteSummary(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(w, "=== GPU Memory Summary ===\n"); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total allocated: %.2f MB\n", toMB(t.total))
	fmt.Fprintf(w, "Peak allocated:  %.2f MB\n", toMB(t.peak))
	fmt.Fprintf(w, "Allocation count: %d\n", len(t.allocations))

	if tags := t.sortedTags(); len(tags) > 0 {
		fmt.Fprintf(w, "\nBy tag:\n")
		for _, tag := range tags {
			fmt.Fprintf(w, "  %s: %.2f MB\n", tag, toMB(t.tagged[tag]))
		}
	}
	_, err := fmt.Fprintf(w, "==========================\n")
	return err
}

func toMB(size vk.DeviceSize) float64 {
	return float64(size) / (1024.0 * 1024.0)
}

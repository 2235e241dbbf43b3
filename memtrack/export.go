package memtrack

import (
	"fmt"
	"io"
	"sort"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// WriteCSV writes the current state as CSV: an aggregate block
// (metric,value_bytes,value_mb) followed, when tags exist, by a per-tag
// block (tag,size_bytes,size_mb). Tags are sorted for stable output.
func (t *Tracker) WriteCSV(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(w, "metric,value_bytes,value_mb\n"); err != nil {
		return err
	}
	fmt.Fprintf(w, "total_allocated,%d,%.2f\n", t.total, toMB(t.total))
	fmt.Fprintf(w, "peak_allocated,%d,%.2f\n", t.peak, toMB(t.peak))
	fmt.Fprintf(w, "allocation_count,%d,%d\n", len(t.allocations), len(t.allocations))

	tags := t.sortedTags()
	if len(tags) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\ntag,size_bytes,size_mb\n"); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := fmt.Fprintf(w, "%s,%d,%.2f\n", tag, t.tagged[tag], toMB(t.tagged[tag])); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON streams the current state as a single JSON object: aggregate
// counters, outstanding bytes per tag, and the outstanding allocations
// themselves. Allocations are ordered by tag, then size, then memory type,
// so output is deterministic.
func (t *Tracker) WriteJSON(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	jw := jwriter.NewWriter()
	obj := jw.Object()
	obj.Name("total_allocated_bytes").Int(int(t.total))
	obj.Name("peak_allocated_bytes").Int(int(t.peak))
	obj.Name("allocation_count").Int(len(t.allocations))

	tagsObj := obj.Name("by_tag").Object()
	for _, tag := range t.sortedTags() {
		tagsObj.Name(tag).Int(int(t.tagged[tag]))
	}
	tagsObj.End()

	infos := make([]AllocationInfo, 0, len(t.allocations))
	for _, info := range t.allocations {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Tag != infos[j].Tag {
			return infos[i].Tag < infos[j].Tag
		}
		if infos[i].Size != infos[j].Size {
			return infos[i].Size < infos[j].Size
		}
		return infos[i].MemoryTypeIndex < infos[j].MemoryTypeIndex
	})

	arr := obj.Name("allocations").Array()
	for _, info := range infos {
		entry := arr.Object()
		entry.Name("size_bytes").Int(int(info.Size))
		entry.Name("memory_type_index").Int(int(info.MemoryTypeIndex))
		if info.Tag != "" {
			entry.Name("tag").String(info.Tag)
		}
		entry.End()
	}
	arr.End()
	obj.End()

	if err := jw.Error(); err != nil {
		return err
	}
	_, err := w.Write(jw.Bytes())
	return err
}

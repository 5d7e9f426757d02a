package temporaltree

import (
	"sort"
	"time"

	"github.com/uttree-health/platform/pkg/common/models"
)

// Level indices of the four-level temporal tree.
const (
	levelRoot   = 0
	levelWindow = 1
	levelBucket = 2
	levelLeaf   = 3
)

// node is an immutable arena record: relabeling assigns a new label value,
// it never rewires children or mutates shared structure.
type node struct {
	label    string
	children []int
	level    int
}

// Tree is the per-admission temporal tree. Level 1 nodes are temporal
// windows in ascending index order, level 2 nodes are temporal event type
// buckets, leaves hold event_value labels.
type Tree struct {
	AdmissionID int64
	arena       []node
}

// leafKey fixes the deterministic leaf order inside a bucket: event name,
// then value, then position in the source slice.
type leafKey struct {
	event  string
	value  string
	source int
}

// Build groups one admission's quadruples into the four-level tree.
// Windows are assigned 1..N over distinct timestamps ascending; buckets are
// ordered lexicographically by temporal event type name; leaves follow the
// canonical sort key. Buckets that end up with no leaves are pruned.
func Build(admissionID int64, quads []models.Quadruple) *Tree {
	t := &Tree{AdmissionID: admissionID}
	t.arena = append(t.arena, node{label: "", level: levelRoot})

	if len(quads) == 0 {
		return t
	}

	byDay := make(map[time.Time][]int)
	for i, q := range quads {
		byDay[q.Timestamp] = append(byDay[q.Timestamp], i)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, day := range days {
		windowIdx := t.addNode(node{label: "", level: levelWindow})
		t.arena[0].children = append(t.arena[0].children, windowIdx)

		byType := make(map[models.TemporalEventType][]int)
		for _, qi := range byDay[day] {
			byType[quads[qi].Type] = append(byType[quads[qi].Type], qi)
		}

		types := make([]string, 0, len(byType))
		for et := range byType {
			types = append(types, string(et))
		}
		sort.Strings(types)

		for _, et := range types {
			members := byType[models.TemporalEventType(et)]
			bucketIdx := t.addNode(node{label: string(et), level: levelBucket})

			keys := make([]leafKey, 0, len(members))
			for _, qi := range members {
				keys = append(keys, leafKey{event: quads[qi].Event, value: quads[qi].Value, source: qi})
			}
			sort.Slice(keys, func(i, j int) bool {
				if keys[i].event != keys[j].event {
					return keys[i].event < keys[j].event
				}
				if keys[i].value != keys[j].value {
					return keys[i].value < keys[j].value
				}
				return keys[i].source < keys[j].source
			})

			for _, k := range keys {
				leafIdx := t.addNode(node{label: k.event + "_" + k.value, level: levelLeaf})
				t.arena[bucketIdx].children = append(t.arena[bucketIdx].children, leafIdx)
			}

			// Guards against filtering steps emptying a bucket after creation.
			if len(t.arena[bucketIdx].children) > 0 {
				t.arena[windowIdx].children = append(t.arena[windowIdx].children, bucketIdx)
			}
		}
	}

	return t
}

func (t *Tree) addNode(n node) int {
	t.arena = append(t.arena, n)
	return len(t.arena) - 1
}

// WindowCount reports the number of temporal windows.
func (t *Tree) WindowCount() int {
	return len(t.arena[0].children)
}

// BucketTypes returns the temporal event types present in the 1-based
// window, in bucket order.
func (t *Tree) BucketTypes(window int) []models.TemporalEventType {
	windows := t.arena[0].children
	if window < 1 || window > len(windows) {
		return nil
	}
	wn := t.arena[windows[window-1]]
	out := make([]models.TemporalEventType, 0, len(wn.children))
	for _, ci := range wn.children {
		out = append(out, models.TemporalEventType(t.arena[ci].label))
	}
	return out
}

// LeafLabels returns the leaf labels under one (window, type) bucket, in
// canonical order.
func (t *Tree) LeafLabels(window int, et models.TemporalEventType) []string {
	windows := t.arena[0].children
	if window < 1 || window > len(windows) {
		return nil
	}
	wn := t.arena[windows[window-1]]
	for _, ci := range wn.children {
		if t.arena[ci].label != string(et) {
			continue
		}
		out := make([]string, 0, len(t.arena[ci].children))
		for _, li := range t.arena[ci].children {
			out = append(out, t.arena[li].label)
		}
		return out
	}
	return nil
}

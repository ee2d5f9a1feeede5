package assignment

import (
	"sort"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// Key identifies the universe of candidate trips: one per route and slot.
type Key struct {
	RouteID    string
	TimeSlotID string
}

// KeyOf returns the bucket a request belongs to.
func KeyOf(r domain.UnifiedRequest) Key {
	return Key{RouteID: r.RouteID, TimeSlotID: r.TimeSlotID}
}

func (k Key) String() string {
	return k.RouteID + "/" + k.TimeSlotID
}

func (k Key) less(other Key) bool {
	if k.RouteID != other.RouteID {
		return k.RouteID < other.RouteID
	}
	return k.TimeSlotID < other.TimeSlotID
}

// Group is the set of requests sharing a key, in input order.
type Group struct {
	Key      Key
	Requests []domain.UnifiedRequest
}

// GroupByKey partitions requests by (route, slot). Groups are ordered by
// route id then slot id so every downstream pass is deterministic.
func GroupByKey(requests []domain.UnifiedRequest) []Group {
	index := make(map[Key]int)
	var groups []Group
	for _, r := range requests {
		key := KeyOf(r)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Requests = append(groups[i].Requests, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.less(groups[j].Key)
	})
	return groups
}

// SortBySequence stable-sorts requests by boarding point order.
func SortBySequence(requests []domain.UnifiedRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].SequenceOrder < requests[j].SequenceOrder
	})
}

// SplitByPriority separates must-serve from fill-remaining requests. Both
// returned slices are fresh copies sorted by sequence.
func SplitByPriority(requests []domain.UnifiedRequest) (recurring, oneOff []domain.UnifiedRequest) {
	for _, r := range requests {
		if r.IsRecurring() {
			recurring = append(recurring, r)
		} else {
			oneOff = append(oneOff, r)
		}
	}
	SortBySequence(recurring)
	SortBySequence(oneOff)
	return recurring, oneOff
}

package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/mibuhand/ai-news-direct/app/item"
)

// Priority ranks the origin of a collected item. Lower values win when two
// items share a dedup key.
type Priority int

const (
	PriorityFeed Priority = iota
	PriorityDirect
	PriorityCrossRef
)

func (p Priority) String() string {
	switch p {
	case PriorityFeed:
		return "feed"
	case PriorityDirect:
		return "direct"
	case PriorityCrossRef:
		return "cross_ref"
	default:
		return "unknown"
	}
}

// Candidate is an item together with the priority of where it was collected.
type Candidate struct {
	Item     item.Item
	Priority Priority
}

// Dedup keeps the first item per dedup key after a stable sort by priority,
// so ties between equal priorities go to the earlier input.
func Dedup(candidates []Candidate) []item.Item {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	seen := make(map[Key]struct{}, len(sorted))
	out := make([]item.Item, 0, len(sorted))
	for _, c := range sorted {
		key := KeyOf(c.Item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c.Item)
	}
	return out
}

// SortByDate orders items newest first. Items whose published_date cannot
// be parsed keep their relative order after all dated items.
func SortByDate(items []item.Item) {
	type dated struct {
		at time.Time
		ok bool
	}
	keys := make([]dated, len(items))
	for i := range items {
		t, ok := item.ParseISO(items[i].PublishedDate)
		keys[i] = dated{t, ok}
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		da, db := keys[a], keys[b]
		switch {
		case da.ok && !db.ok:
			return -1
		case !da.ok && db.ok:
			return 1
		case !da.ok && !db.ok:
			return 0
		}
		return db.at.Compare(da.at)
	})

	sorted := make([]item.Item, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}

// Matches reports whether any pattern occurs, case-insensitively, in label.
// Empty labels and empty patterns never match.
func Matches(label string, patterns []string) bool {
	if label == "" || len(patterns) == 0 {
		return false
	}
	l := strings.ToLower(label)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(l, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

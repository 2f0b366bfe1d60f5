package item

import (
	"log/slog"
	"strings"
	"time"
)

// Mapper converts adapter records into canonical items. It never aborts a
// batch: records that cannot be mapped are logged and dropped.
type Mapper struct {
	now func() time.Time
}

func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

func (m *Mapper) Map(rec Record) (Item, bool) {
	it, err := rec.Canonical(m.now().UTC())
	if err != nil {
		slog.Debug("Record dropped", "source", rec.Source(), "error", err)
		return Item{}, false
	}
	return it, true
}

func (m *Mapper) MapAll(records []Record) []Item {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		if it, ok := m.Map(rec); ok {
			items = append(items, it)
		}
	}
	return items
}

// Clean trims and collapses runs of whitespace.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NonEmpty drops blank values, keeping order.
func NonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

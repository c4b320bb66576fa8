package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Counter is a map of cumulative counts that remembers the order in which
// ids were first counted. The zero value is ready to use.
type Counter struct {
	keys   []string
	counts map[string]int
}

// Inc adds one to id and returns the new count.
func (c *Counter) Inc(id string) int {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[id]; !ok {
		c.keys = append(c.keys, id)
	}
	c.counts[id]++
	return c.counts[id]
}

// Get returns the count for id.
func (c *Counter) Get(id string) int {
	if c == nil {
		return 0
	}
	return c.counts[id]
}

// Keys returns ids in first-insertion order.
func (c *Counter) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of distinct ids.
func (c *Counter) Len() int { return len(c.keys) }

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, v := range c.counts {
		total += v
	}
	return total
}

// Map returns a copy of the counts.
func (c *Counter) Map() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy.
func (c *Counter) Clone() Counter {
	return Counter{keys: c.Keys(), counts: c.Map()}
}

// Reset empties the counter.
func (c *Counter) Reset() {
	c.keys = nil
	c.counts = nil
}

// restore rebuilds a counter from persisted counts and an optional key order.
// Ids missing from order are appended in lexical order.
func restore(counts map[string]int, order []string) (Counter, error) {
	var c Counter
	c.counts = make(map[string]int, len(counts))
	for k, v := range counts {
		if v < 0 {
			return Counter{}, fmt.Errorf("%w: negative count for %q", ErrMalformed, k)
		}
		c.counts[k] = v
	}
	seen := make(map[string]bool, len(counts))
	for _, k := range order {
		if _, ok := counts[k]; ok && !seen[k] {
			seen[k] = true
			c.keys = append(c.keys, k)
		}
	}
	var rest []string
	for k := range counts {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	c.keys = append(c.keys, rest...)
	return c, nil
}

// Ledger is the persisted record of tracked events and their cumulative
// counters. Raw logs are bounded by the owner; counters never shrink
// except on reset.
type Ledger struct {
	CopyEvents []CopyEvent
	CopyCounts Counter
	ViewEvents []ViewEvent
	ViewCounts Counter
}

// Events returns the raw log for kind.
func (l *Ledger) Events(kind Kind) []SkillEvent {
	if kind == KindCopy {
		return l.CopyEvents
	}
	return l.ViewEvents
}

// Counts returns the cumulative counter for kind.
func (l *Ledger) Counts(kind Kind) *Counter {
	if kind == KindCopy {
		return &l.CopyCounts
	}
	return &l.ViewCounts
}

// Clone returns a deep copy safe to read without holding the owner's lock.
func (l *Ledger) Clone() Ledger {
	return Ledger{
		CopyEvents: append([]CopyEvent(nil), l.CopyEvents...),
		CopyCounts: l.CopyCounts.Clone(),
		ViewEvents: append([]ViewEvent(nil), l.ViewEvents...),
		ViewCounts: l.ViewCounts.Clone(),
	}
}

// ledgerDocument is the persisted shape. Go maps lose insertion order, so
// the key order of each counter travels alongside it.
type ledgerDocument struct {
	CopyEvents      []CopyEvent    `json:"copyEvents"`
	SkillCopyCounts map[string]int `json:"skillCopyCounts"`
	CopyOrder       []string       `json:"copyOrder,omitempty"`
	ViewEvents      []ViewEvent    `json:"viewEvents"`
	SkillViewCounts map[string]int `json:"skillViewCounts"`
	ViewOrder       []string       `json:"viewOrder,omitempty"`
}

// MarshalJSON encodes the ledger as the persisted document.
func (l Ledger) MarshalJSON() ([]byte, error) {
	doc := ledgerDocument{
		CopyEvents:      l.CopyEvents,
		SkillCopyCounts: l.CopyCounts.Map(),
		CopyOrder:       l.CopyCounts.Keys(),
		ViewEvents:      l.ViewEvents,
		SkillViewCounts: l.ViewCounts.Map(),
		ViewOrder:       l.ViewCounts.Keys(),
	}
	if doc.CopyEvents == nil {
		doc.CopyEvents = []CopyEvent{}
	}
	if doc.ViewEvents == nil {
		doc.ViewEvents = []ViewEvent{}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a persisted document. Missing sections decode as
// empty; negative counters are rejected as malformed.
func (l *Ledger) UnmarshalJSON(b []byte) error {
	var doc ledgerDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	copyCounts, err := restore(doc.SkillCopyCounts, doc.CopyOrder)
	if err != nil {
		return err
	}
	viewCounts, err := restore(doc.SkillViewCounts, doc.ViewOrder)
	if err != nil {
		return err
	}
	*l = Ledger{
		CopyEvents: doc.CopyEvents,
		CopyCounts: copyCounts,
		ViewEvents: doc.ViewEvents,
		ViewCounts: viewCounts,
	}
	return nil
}

// Package trending derives counts, popularity rankings, recency-weighted
// trending rankings and badge sets from a ledger snapshot. Every function
// recomputes from the snapshot it is given; nothing is cached.
package trending

import (
	"sort"
	"time"

	"github.com/okian/skillpulse/internal/domain/model"
)

// badgeTopN is how many trending entries are considered for the badge.
const badgeTopN = 10

// Weighting shapes the linear recency decay: an event of age a inside a
// window of length d weighs Base + Boost*(1 - a/d).
type Weighting struct {
	Base  float64
	Boost float64
}

// DefaultWeighting decays from 2.0 for a brand new event to 1.0 at the
// window edge.
func DefaultWeighting() Weighting {
	return Weighting{Base: 1, Boost: 1}
}

// Weight returns the recency weight of an event age inside window.
// Ages below zero are treated as zero.
func (w Weighting) Weight(age, window time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return w.Base + w.Boost*(1-float64(age)/float64(window))
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeighting overrides the recency weighting.
func WithWeighting(w Weighting) Option {
	return func(a *Aggregator) {
		a.weighting = w
	}
}

// Aggregator computes trending rankings and badges.
type Aggregator struct {
	weighting Weighting
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{weighting: DefaultWeighting()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Count returns the cumulative count of kind for id.
func Count(l *model.Ledger, kind model.Kind, id string) int {
	return l.Counts(kind).Get(id)
}

// TotalCount returns the cumulative count of kind across all ids.
func TotalCount(l *model.Ledger, kind model.Kind) int {
	return l.Counts(kind).Total()
}

// MostPopular returns up to limit ids ordered by cumulative count
// descending. Ties keep the order in which ids were first counted.
func MostPopular(l *model.Ledger, kind model.Kind, limit int) []model.PopularEntry {
	if limit <= 0 {
		return []model.PopularEntry{}
	}
	counter := l.Counts(kind)
	keys := counter.Keys()
	entries := make([]model.PopularEntry, len(keys))
	for i, k := range keys {
		entries[i] = model.PopularEntry{SkillID: k, Count: counter.Get(k)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Trending scores views inside the period ending at now. Every view with
// timestamp >= now-period contributes its recency weight to its skill.
// Skills are ordered by score descending; ties keep first-seen order.
func (a *Aggregator) Trending(l *model.Ledger, period model.Period, limit int, now time.Time) []model.TrendingEntry {
	window := period.Duration()
	if limit <= 0 || window <= 0 {
		return []model.TrendingEntry{}
	}
	nowMs := now.UnixMilli()
	cutoff := nowMs - window.Milliseconds()

	byID := make(map[string]int)
	entries := make([]model.TrendingEntry, 0)
	for _, ev := range l.ViewEvents {
		if ev.Timestamp < cutoff {
			continue
		}
		age := time.Duration(nowMs-ev.Timestamp) * time.Millisecond
		i, ok := byID[ev.SkillID]
		if !ok {
			i = len(entries)
			byID[ev.SkillID] = i
			entries = append(entries, model.TrendingEntry{SkillID: ev.SkillID})
		}
		entries[i].Score += a.weighting.Weight(age, window)
		entries[i].ViewCount++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

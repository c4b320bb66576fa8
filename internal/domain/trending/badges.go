package trending

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/okian/skillpulse/internal/domain/model"
)

// BadgeOptions controls badge classification.
type BadgeOptions struct {
	Period            model.Period
	TrendingThreshold int
	PopularThreshold  int
}

// DefaultBadgeOptions returns weekly, >=3 windowed views for trending and
// >=5 cumulative views for popular.
func DefaultBadgeOptions() BadgeOptions {
	return BadgeOptions{
		Period:            model.PeriodWeekly,
		TrendingThreshold: 3,
		PopularThreshold:  5,
	}
}

// BadgeStatus holds the trending and popular membership sets.
type BadgeStatus struct {
	Trending map[string]struct{}
	Popular  map[string]struct{}
}

// IsTrending reports whether id carries the trending badge.
func (b BadgeStatus) IsTrending(id string) bool {
	_, ok := b.Trending[id]
	return ok
}

// IsPopular reports whether id carries the popular badge.
func (b BadgeStatus) IsPopular(id string) bool {
	_, ok := b.Popular[id]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TrendingIDs returns the trending set in lexical order.
func (b BadgeStatus) TrendingIDs() []string { return sortedKeys(b.Trending) }

// PopularIDs returns the popular set in lexical order.
func (b BadgeStatus) PopularIDs() []string { return sortedKeys(b.Popular) }

// MarshalJSON encodes both sets as sorted arrays.
func (b BadgeStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Trending []string `json:"trending"`
		Popular  []string `json:"popular"`
	}{b.TrendingIDs(), b.PopularIDs()})
}

// Badges classifies skills. Trending: ids in the top-10 trending list for
// opts.Period with at least opts.TrendingThreshold views in the window.
// Popular: ids with at least opts.PopularThreshold cumulative views.
func (a *Aggregator) Badges(l *model.Ledger, opts BadgeOptions, now time.Time) BadgeStatus {
	status := BadgeStatus{
		Trending: make(map[string]struct{}),
		Popular:  make(map[string]struct{}),
	}
	if opts.Period == "" {
		opts.Period = model.PeriodWeekly
	}
	for _, e := range a.Trending(l, opts.Period, badgeTopN, now) {
		if e.ViewCount >= opts.TrendingThreshold {
			status.Trending[e.SkillID] = struct{}{}
		}
	}
	for _, id := range l.ViewCounts.Keys() {
		if l.ViewCounts.Get(id) >= opts.PopularThreshold {
			status.Popular[id] = struct{}{}
		}
	}
	return status
}

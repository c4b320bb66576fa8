// Package relevance ranks catalog items against query tokens using weighted
// substring matches over each item's text fields.
package relevance

import (
	"sort"
	"strings"

	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/domain/tokenize"
)

// DefaultMaxResults is used when the caller does not ask for a limit.
const DefaultMaxResults = 6

// Weights are the points a token earns for each field it appears in.
type Weights struct {
	Name            float64 `koanf:"name"`
	Tags            float64 `koanf:"tags"`
	Description     float64 `koanf:"description"`
	LongDescription float64 `koanf:"long_description"`
	Features        float64 `koanf:"features"`
	UseCases        float64 `koanf:"use_cases"`
	FeaturedBonus   float64 `koanf:"featured_bonus"`
}

// DefaultWeights returns the stock field weights.
func DefaultWeights() Weights {
	return Weights{
		Name:            10,
		Tags:            8,
		Description:     5,
		LongDescription: 3,
		Features:        4,
		UseCases:        6,
		FeaturedBonus:   2,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides the field weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// WithDefaultMaxResults sets the limit used when callers pass a limit <= 0.
func WithDefaultMaxResults(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.defaultMax = n
		}
	}
}

// Scorer computes relevance scores. It holds no per-query state and is safe
// for concurrent use.
type Scorer struct {
	weights    Weights
	defaultMax int
}

// NewScorer creates a scorer with stock weights unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		weights:    DefaultWeights(),
		defaultMax: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// indexedItem holds the lowercased fields of one catalog item.
type indexedItem struct {
	searchable      string
	name            string
	description     string
	longDescription string
	tags            []string
	features        []string
	useCases        []string
}

func index(item *model.CatalogItem) indexedItem {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	idx := indexedItem{
		name:            strings.ToLower(item.Name),
		description:     strings.ToLower(item.Description),
		longDescription: strings.ToLower(item.LongDescription),
		tags:            lower(item.Tags),
		features:        lower(item.Features),
		useCases:        lower(item.UseCases),
	}
	parts := make([]string, 0, 3+len(idx.tags)+len(idx.features)+len(idx.useCases))
	parts = append(parts, idx.name, idx.description, idx.longDescription)
	parts = append(parts, idx.tags...)
	parts = append(parts, idx.features...)
	parts = append(parts, idx.useCases...)
	idx.searchable = strings.Join(parts, " ")
	return idx
}

func anyContains(values []string, token string) bool {
	for _, v := range values {
		if strings.Contains(v, token) {
			return true
		}
	}
	return false
}

// Score returns the relevance of item for tokens and the tokens that
// matched, in first-encounter order without repeats.
func (s *Scorer) Score(item *model.CatalogItem, tokens []string) (float64, []string) {
	idx := index(item)
	score := 0.0
	matched := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))

	for _, token := range tokens {
		if token == "" || !strings.Contains(idx.searchable, token) {
			continue
		}
		// A repeated token adds nothing: points are per (token, field).
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		matched = append(matched, token)

		if strings.Contains(idx.name, token) {
			score += s.weights.Name
		}
		if anyContains(idx.tags, token) {
			score += s.weights.Tags
		}
		if strings.Contains(idx.description, token) {
			score += s.weights.Description
		}
		if strings.Contains(idx.longDescription, token) {
			score += s.weights.LongDescription
		}
		if anyContains(idx.features, token) {
			score += s.weights.Features
		}
		if anyContains(idx.useCases, token) {
			score += s.weights.UseCases
		}
	}

	if item.Featured && score > 0 {
		score += s.weights.FeaturedBonus
	}
	return score, matched
}

// Rank scores every item, drops zero scores, stable-sorts by score
// descending and truncates to limit (the default when limit <= 0).
func (s *Scorer) Rank(items []model.CatalogItem, tokens []string, limit int) []model.RecommendationResult {
	if limit <= 0 {
		limit = s.defaultMax
	}
	results := make([]model.RecommendationResult, 0, limit)
	if len(tokens) == 0 {
		return results
	}
	for i := range items {
		score, matched := s.Score(&items[i], tokens)
		if score <= 0 {
			continue
		}
		results = append(results, model.RecommendationResult{
			Item:         items[i],
			Score:        score,
			MatchedTerms: matched,
		})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Recommend tokenizes query and ranks items against it. Blank queries and
// queries made only of stop words yield an empty result.
func (s *Scorer) Recommend(items []model.CatalogItem, query string, limit int) []model.RecommendationResult {
	return s.Rank(items, tokenize.Tokenize(query), limit)
}

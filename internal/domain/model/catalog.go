package model

// CatalogItem is one read-only entry of the skill catalog.
type CatalogItem struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	LongDescription string   `json:"longDescription,omitempty" yaml:"longDescription,omitempty"`
	Tags            []string `json:"tags" yaml:"tags"`
	Features        []string `json:"features,omitempty" yaml:"features,omitempty"`
	UseCases        []string `json:"useCases,omitempty" yaml:"useCases,omitempty"`
	Featured        bool     `json:"featured" yaml:"featured"`

	// Display-only fields, never scored.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Author   string `json:"author,omitempty" yaml:"author,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
}

// RecommendationResult is a catalog item annotated with its relevance.
type RecommendationResult struct {
	Item         CatalogItem `json:"item"`
	Score        float64     `json:"score"`
	MatchedTerms []string    `json:"matchedTerms"`
}

// TrendingEntry is one row of a trending ranking.
type TrendingEntry struct {
	SkillID   string  `json:"skillId"`
	Score     float64 `json:"score"`
	ViewCount int     `json:"viewCount"`
}

// PopularEntry is one row of a most-popular ranking.
type PopularEntry struct {
	SkillID string `json:"skillId"`
	Count   int    `json:"count"`
}

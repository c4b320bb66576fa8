package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (defaults to $SKILLPULSE_CONFIG)"`
	Store   string `long:"store" description:"Override the SQLite database path"`
	Memory  bool   `long:"memory" description:"Use a throwaway in-memory store"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// RecommendCommand ranks catalog skills against a free-text query.
type RecommendCommand struct {
	Limit int `long:"limit" description:"Maximum results (0 uses the configured default)" default:"0"`

	Args struct {
		Query []string `positional-arg-name:"query" description:"Free-text description of the task"`
	} `positional-args:"yes"`

	rt *runtime
}

// TrendingCommand lists skills by recency-weighted views.
type TrendingCommand struct {
	Period string `long:"period" description:"daily | weekly | monthly" default:"weekly"`
	Limit  int    `long:"limit" description:"Maximum results" default:"10"`

	rt *runtime
}

// PopularCommand lists skills by cumulative count.
type PopularCommand struct {
	Kind  string `long:"kind" description:"copy | view" default:"view"`
	Limit int    `long:"limit" description:"Maximum results" default:"10"`

	rt *runtime
}

// BadgesCommand prints the trending and popular badge sets.
type BadgesCommand struct {
	rt *runtime
}

// TrackCommand records one copy or view.
type TrackCommand struct {
	Kind string `long:"kind" description:"copy | view" default:"view"`
	Key  string `long:"key" description:"Idempotency key"`

	Args struct {
		SkillID string `positional-arg-name:"skill-id" required:"yes"`
	} `positional-args:"yes"`

	rt *runtime
}

// RecentCommand prints the newest events.
type RecentCommand struct {
	Kind  string `long:"kind" description:"copy | view | error" default:"view"`
	Limit int    `long:"limit" description:"Maximum results" default:"10"`

	rt *runtime
}

// ClearCommand erases all tracked activity.
type ClearCommand struct {
	Force bool `long:"force" description:"Required to confirm the clear"`

	rt *runtime
}

// SeedCommand generates synthetic activity.
type SeedCommand struct {
	Events    int     `long:"events" description:"Number of interactions" default:"500"`
	CopyRatio float64 `long:"copy-ratio" description:"Share of copies in [0,1]" default:"0.2"`
	Span      string  `long:"span" description:"Spread events over this window (e.g. 14d, 36h)" default:"14d"`
	Skew      float64 `long:"skew" description:"Popularity skew; 0 is uniform" default:"1.1"`
	Seed      uint64  `long:"seed" description:"Random seed for reproducible plans; 0 is random" default:"0"`

	rt *runtime
}

// Package seed generates synthetic copy and view traffic for demos and load
// checks.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/pkg/logger"
)

// Error constants.
var (
	ErrNoSkills    = errors.New("seed: no skills to generate traffic for")
	ErrInvalidPlan = errors.New("seed: invalid plan")
)

// Config holds the parameters of a generated traffic plan.
type Config struct {
	// Events is the number of interactions to generate.
	Events int

	// CopyRatio is the share of interactions that are copies, in [0,1].
	CopyRatio float64

	// Span spreads event times over [now-Span, now].
	Span time.Duration

	// Skew shapes popularity: skill i gets weight 1/(i+1)^Skew. Zero is
	// uniform.
	Skew float64

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultConfig returns 500 events over two weeks, one copy in five.
func DefaultConfig() Config {
	return Config{
		Events:    500,
		CopyRatio: 0.2,
		Span:      14 * 24 * time.Hour,
		Skew:      1.1,
	}
}

func (c Config) validate() error {
	if c.Events < 0 {
		return fmt.Errorf("%w: events must not be negative", ErrInvalidPlan)
	}
	if c.CopyRatio < 0 || c.CopyRatio > 1 {
		return fmt.Errorf("%w: copy ratio %v outside [0,1]", ErrInvalidPlan, c.CopyRatio)
	}
	if c.Span < 0 || c.Skew < 0 {
		return fmt.Errorf("%w: span and skew must not be negative", ErrInvalidPlan)
	}
	return nil
}

// Event is one planned interaction.
type Event struct {
	Kind    model.Kind
	SkillID string
	At      time.Time
}

// Generate plans cfg.Events interactions over skills, oldest first.
func Generate(cfg Config, skills []string, now time.Time) ([]Event, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(skills) == 0 {
		return nil, ErrNoSkills
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	cumulative := make([]float64, len(skills))
	total := 0.0
	for i := range skills {
		total += 1 / math.Pow(float64(i+1), cfg.Skew)
		cumulative[i] = total
	}

	events := make([]Event, cfg.Events)
	for i := range events {
		pick := sort.SearchFloat64s(cumulative, rng.Float64()*total)
		if pick >= len(skills) {
			pick = len(skills) - 1
		}
		kind := model.KindView
		if rng.Float64() < cfg.CopyRatio {
			kind = model.KindCopy
		}
		var back time.Duration
		if cfg.Span > 0 {
			back = time.Duration(rng.Int64N(int64(cfg.Span)))
		}
		events[i] = Event{Kind: kind, SkillID: skills[pick], At: now.Add(-back)}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	return events, nil
}

// Tracker records interactions.
type Tracker interface {
	Track(ctx context.Context, kind model.Kind, skillID, idempotencyKey string) (model.TrackResult, error)
}

// Clock is a settable time source. Replay moves it to each event's time so
// a tracker built on it stamps events in the past.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock reading t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current reading.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Stats summarizes a replay.
type Stats struct {
	Copies   int
	Views    int
	Failed   int
	Duration time.Duration
}

// Replay feeds events to t in order. clock may be nil when the tracker
// uses wall time. Each event carries a fresh idempotency key.
func Replay(ctx context.Context, t Tracker, clock *Clock, events []Event) (Stats, error) {
	start := time.Now()
	var stats Stats
	log := logger.Get().Named("seed")

	for i, e := range events {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("replay interrupted after %d events: %w", i, err)
		}
		if clock != nil {
			clock.Set(e.At)
		}
		res, err := t.Track(ctx, e.Kind, e.SkillID, uuid.NewString())
		if err != nil || res.Duplicate || res.Ignored {
			stats.Failed++
			log.Warn(ctx, "seed event rejected",
				logger.String("skillId", e.SkillID),
				logger.String("kind", string(e.Kind)),
				logger.Error(err))
			continue
		}
		if e.Kind == model.KindCopy {
			stats.Copies++
		} else {
			stats.Views++
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "seed replay complete",
		logger.Int("copies", stats.Copies),
		logger.Int("views", stats.Views),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

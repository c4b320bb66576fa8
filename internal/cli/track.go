package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	service "github.com/okian/skillpulse/internal/app"
	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/seed"
)

var (
	// ErrClearNotConfirmed is returned when clear runs without --force.
	ErrClearNotConfirmed = errors.New("refusing to clear without --force")
	// ErrBlankSkillID is returned when track gets an empty skill id.
	ErrBlankSkillID = errors.New("skill id must not be blank")
)

// Execute implements the go-flags Commander interface for TrackCommand.
func (c *TrackCommand) Execute(_ []string) error {
	kind, err := model.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.Args.SkillID) == "" {
		return ErrBlankSkillID
	}
	ctx := context.Background()
	return c.rt.withService(ctx, func(svc *service.Service) error {
		res, err := svc.Track(ctx, kind, c.Args.SkillID, c.Key)
		if err != nil {
			return err
		}
		if c.rt.globals.JSON {
			return c.rt.printJSON(res)
		}
		if res.Duplicate {
			c.rt.printf("Duplicate request; nothing recorded.\n")
			return nil
		}
		c.rt.printf("Recorded %s of %s at %s\n", kind, res.Event.SkillID, formatMillis(res.Event.Timestamp))
		return nil
	})
}

// Execute implements the go-flags Commander interface for ClearCommand.
func (c *ClearCommand) Execute(_ []string) error {
	if !c.Force {
		return ErrClearNotConfirmed
	}
	ctx := context.Background()
	return c.rt.withService(ctx, func(svc *service.Service) error {
		svc.Clear(ctx)
		if !c.rt.globals.JSON {
			c.rt.printf("Ledger cleared.\n")
		}
		return nil
	})
}

// Execute implements the go-flags Commander interface for SeedCommand.
func (c *SeedCommand) Execute(_ []string) error {
	span, err := parseSpan(c.Span)
	if err != nil {
		return err
	}
	cfg := seed.Config{
		Events:    c.Events,
		CopyRatio: c.CopyRatio,
		Span:      span,
		Skew:      c.Skew,
		Seed:      c.Seed,
	}

	now := time.Now()
	clock := seed.NewClock(now)
	ctx := context.Background()
	return c.rt.withService(ctx, func(svc *service.Service) error {
		plan, err := seed.Generate(cfg, svc.SkillIDs(), now)
		if err != nil {
			return err
		}
		stats, err := seed.Replay(ctx, svc, clock, plan)
		if err != nil {
			return err
		}
		if c.rt.globals.JSON {
			return c.rt.printJSON(stats)
		}
		c.rt.printf("Seeded %d copies and %d views (%d rejected) in %s\n",
			stats.Copies, stats.Views, stats.Failed, stats.Duration.Round(time.Millisecond))
		return nil
	}, service.WithClock(clock.Now))
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

package cli

import (
	"context"
	"strings"

	service "github.com/okian/skillpulse/internal/app"
	"github.com/okian/skillpulse/internal/domain/model"
)

// Execute implements the go-flags Commander interface for RecommendCommand.
func (c *RecommendCommand) Execute(_ []string) error {
	query := strings.Join(c.Args.Query, " ")
	return c.rt.withService(context.Background(), func(svc *service.Service) error {
		results := svc.Recommend(context.Background(), query, c.Limit)
		if c.rt.globals.JSON {
			return c.rt.printJSON(results)
		}
		if len(results) == 0 {
			c.rt.printf("No matching skills.\n")
			return nil
		}
		for i, r := range results {
			c.rt.printf("%2d. %-28s %6.1f  %s\n", i+1, r.Item.ID, r.Score, strings.Join(r.MatchedTerms, ", "))
		}
		return nil
	})
}

// Execute implements the go-flags Commander interface for TrendingCommand.
func (c *TrendingCommand) Execute(_ []string) error {
	period, err := model.ParsePeriod(c.Period)
	if err != nil {
		return err
	}
	return c.rt.withService(context.Background(), func(svc *service.Service) error {
		entries := svc.Trending(context.Background(), period, c.Limit)
		if c.rt.globals.JSON {
			return c.rt.printJSON(entries)
		}
		if len(entries) == 0 {
			c.rt.printf("No views in the %s window.\n", period)
			return nil
		}
		for i, e := range entries {
			c.rt.printf("%2d. %-28s %8.2f  (%d views)\n", i+1, e.SkillID, e.Score, e.ViewCount)
		}
		return nil
	})
}

// Execute implements the go-flags Commander interface for PopularCommand.
func (c *PopularCommand) Execute(_ []string) error {
	kind, err := model.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	return c.rt.withService(context.Background(), func(svc *service.Service) error {
		entries := svc.MostPopular(context.Background(), kind, c.Limit)
		if c.rt.globals.JSON {
			return c.rt.printJSON(entries)
		}
		if len(entries) == 0 {
			c.rt.printf("No %s events yet.\n", kind)
			return nil
		}
		for i, e := range entries {
			c.rt.printf("%2d. %-28s %6d\n", i+1, e.SkillID, e.Count)
		}
		return nil
	})
}

// Execute implements the go-flags Commander interface for BadgesCommand.
func (c *BadgesCommand) Execute(_ []string) error {
	return c.rt.withService(context.Background(), func(svc *service.Service) error {
		status := svc.BadgeStatus(context.Background())
		if c.rt.globals.JSON {
			return c.rt.printJSON(status)
		}
		c.rt.printf("Trending: %s\n", listOrNone(status.TrendingIDs()))
		c.rt.printf("Popular:  %s\n", listOrNone(status.PopularIDs()))
		return nil
	})
}

// Execute implements the go-flags Commander interface for RecentCommand.
func (c *RecentCommand) Execute(_ []string) error {
	ctx := context.Background()
	if c.Kind == "error" {
		return c.rt.withService(ctx, func(svc *service.Service) error {
			errs := svc.RecentErrors(ctx, c.Limit)
			if c.rt.globals.JSON {
				return c.rt.printJSON(errs)
			}
			for _, e := range errs {
				c.rt.printf("%s  %s\n", formatMillis(e.Timestamp), e.Message)
			}
			return nil
		})
	}

	kind, err := model.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	return c.rt.withService(ctx, func(svc *service.Service) error {
		events := svc.Recent(ctx, kind, c.Limit)
		if c.rt.globals.JSON {
			return c.rt.printJSON(events)
		}
		for _, e := range events {
			c.rt.printf("%s  %-5s %s\n", formatMillis(e.Timestamp), kind, e.SkillID)
		}
		return nil
	})
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

// Package cli implements the skillctl command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"

	"github.com/okian/skillpulse/pkg/logger"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Recommend *RecommendCommand
	Trending  *TrendingCommand
	Popular   *PopularCommand
	Badges    *BadgesCommand
	Track     *TrackCommand
	Recent    *RecentCommand
	Clear     *ClearCommand
	Seed      *SeedCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(rt *runtime) (*goflags.Parser, *commands) {
	parser := goflags.NewParser(rt.globals, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "skillctl"
	parser.LongDescription = "Inspect and drive a SkillPulse ledger: recommendations, rankings, badges and synthetic traffic."

	cmds := &commands{
		Recommend: &RecommendCommand{rt: rt},
		Trending:  &TrendingCommand{rt: rt},
		Popular:   &PopularCommand{rt: rt},
		Badges:    &BadgesCommand{rt: rt},
		Track:     &TrackCommand{rt: rt},
		Recent:    &RecentCommand{rt: rt},
		Clear:     &ClearCommand{rt: rt},
		Seed:      &SeedCommand{rt: rt},
	}

	mustAdd(parser, "recommend", "Recommend skills for a task", "Rank catalog skills against a free-text task description.", cmds.Recommend)
	mustAdd(parser, "trending", "List trending skills", "List skills ranked by recency-weighted views inside a period.", cmds.Trending)
	mustAdd(parser, "popular", "List most popular skills", "List skills ranked by cumulative copies or views.", cmds.Popular)
	mustAdd(parser, "badges", "Show badge sets", "Show which skills currently carry the trending and popular badges.", cmds.Badges)
	mustAdd(parser, "track", "Record a copy or view", "Record one copy or view of a skill.", cmds.Track)
	mustAdd(parser, "recent", "Show recent events", "Show the newest copy, view or error events.", cmds.Recent)
	mustAdd(parser, "clear", "Erase all activity", "Erase all tracked activity. Requires --force.", cmds.Clear)
	mustAdd(parser, "seed", "Generate synthetic activity", "Generate weighted-random copy and view traffic spread over a time window.", cmds.Seed)

	return parser, cmds
}

func mustAdd(p *goflags.Parser, name, short, long string, data any) {
	if _, err := p.AddCommand(name, short, long, data); err != nil {
		panic(err)
	}
}

// Run is the main entry point for skillctl using os.Args. Logs go to
// stderr so stdout stays parseable.
func Run(version string) error {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return RunWithArgs(version, os.Args[1:], os.Stdout)
}

// RunWithArgs parses args and executes the matched subcommand, writing
// results to out.
func RunWithArgs(version string, args []string, out io.Writer) error {
	return run(version, args, newRuntime(out))
}

func run(version string, args []string, rt *runtime) error {
	for _, arg := range args {
		if arg == "--version" {
			_, err := fmt.Fprintf(rt.out, "skillctl %s\n", version)
			return err
		}
		if arg == "--" {
			break
		}
	}

	parser, _ := buildParser(rt)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			_, _ = fmt.Fprintln(rt.out, flagsErr.Message)
			return nil
		}
		return err
	}
	return nil
}

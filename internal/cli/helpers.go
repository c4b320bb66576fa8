package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	service "github.com/okian/skillpulse/internal/app"
	"github.com/okian/skillpulse/internal/config"
	"github.com/okian/skillpulse/pkg/logger"
)

type openFunc func(ctx context.Context, g *GlobalFlags, opts ...service.Option) (*service.Service, error)

// runtime carries what every command shares: parsed global flags, the
// output stream and the way a service is opened.
type runtime struct {
	globals *GlobalFlags
	out     io.Writer
	open    openFunc
}

func newRuntime(out io.Writer) *runtime {
	return &runtime{globals: &GlobalFlags{}, out: out, open: openConfigured}
}

// openConfigured loads configuration the way the server does, applies the
// global overrides and opens the store. Telemetry is off for one-shot runs.
func openConfigured(ctx context.Context, g *GlobalFlags, opts ...service.Option) (*service.Service, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		cfg, err = config.LoadFile(ctx, g.Config)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if g.Verbose {
		level = "debug"
	} else if level == "info" {
		level = "warn"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}

	switch {
	case g.Memory:
		cfg.StoreDriver = config.StoreMemory
	case g.Store != "":
		cfg.StoreDriver = config.StoreSQLite
		cfg.StorePath = g.Store
	}
	cfg.TelemetryEnabled = false

	return service.FromConfig(ctx, cfg, opts...)
}

// withService opens a started service, runs fn and stops it.
func (rt *runtime) withService(ctx context.Context, fn func(*service.Service) error, opts ...service.Option) error {
	svc, err := rt.open(ctx, rt.globals, opts...)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if err := fn(svc); err != nil {
		return err
	}
	if err := svc.LastPersistError(); err != nil {
		return fmt.Errorf("changes were not saved: %w", err)
	}
	return nil
}

func (rt *runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (rt *runtime) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(rt.out, format, args...)
}

// parseSpan parses durations like "14d", "2w", "36h" or anything
// time.ParseDuration accepts.
func parseSpan(s string) (time.Duration, error) {
	if len(s) >= 2 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err == nil && n >= 0 {
			switch s[len(s)-1] {
			case 'd':
				return time.Duration(n) * 24 * time.Hour, nil
			case 'w':
				return time.Duration(n) * 7 * 24 * time.Hour, nil
			}
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid span %q (use d, w, h or m suffix)", s)
	}
	return d, nil
}

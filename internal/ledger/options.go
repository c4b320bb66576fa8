package ledger

import (
	"time"

	"github.com/okian/skillpulse/internal/adapters/telemetry"
	"github.com/okian/skillpulse/pkg/logger"
)

// Storage keys and caps used when no option overrides them.
const (
	DefaultLedgerKey = "skillpulse.ledger"
	DefaultErrorsKey = "skillpulse.errors"
	DefaultMaxEvents = 1000
	DefaultMaxErrors = 100
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMaxEvents caps each raw event log.
func WithMaxEvents(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxEvents = n
		}
	}
}

// WithMaxErrors caps the error log.
func WithMaxErrors(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxErrors = n
		}
	}
}

// WithKeys sets the storage keys of the ledger document and the error log.
func WithKeys(ledgerKey, errorsKey string) Option {
	return func(l *Ledger) {
		if ledgerKey != "" {
			l.ledgerKey = ledgerKey
		}
		if errorsKey != "" {
			l.errorsKey = errorsKey
		}
	}
}

// WithSink sets the telemetry sink notified after each append.
func WithSink(s telemetry.Sink) Option {
	return func(l *Ledger) {
		if s != nil {
			l.sink = s
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithIDGenerator overrides how telemetry event ids are produced.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

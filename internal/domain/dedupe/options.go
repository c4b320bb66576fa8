package dedupe

import "time"

// Option applies a configuration option to the in-memory deduper.
type Option func(*keyCache)

// WithMaxSize sets the maximum number of keys kept. Values <= 0 mean
// unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *keyCache) {
		d.maxSize = maxSize
	}
}

// WithTTL makes keys expire after ttl. Zero keeps keys until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(d *keyCache) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *keyCache) {
		if now != nil {
			d.now = now
		}
	}
}

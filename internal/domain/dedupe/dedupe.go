// Package dedupe remembers idempotency keys of tracking requests so a
// retried request is applied to the ledger at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultMaxSize = 50_000

// Deduper records seen idempotency keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so that a request that recorded nothing can be
	// retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key  string
	seen time.Time
}

// keyCache is a bounded FIFO of keys. When full, the oldest key is evicted.
// Keys older than ttl (if set) are treated as unseen.
type keyCache struct {
	mu      sync.Mutex
	order   *list.List
	index   map[string]*list.Element
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &keyCache{
		maxSize: defaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.order = list.New()
	d.index = make(map[string]*list.Element)
	return d
}

func (d *keyCache) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.index[key]; ok {
		e := el.Value.(*entry)
		if d.ttl <= 0 || now.Sub(e.seen) < d.ttl {
			return true
		}
		d.remove(el)
	}

	if d.maxSize > 0 {
		for d.order.Len() >= d.maxSize {
			d.remove(d.order.Front())
		}
	}
	d.index[key] = d.order.PushBack(&entry{key: key, seen: now})
	return false
}

func (d *keyCache) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.index[key]; ok {
		d.remove(el)
	}
}

// remove must be called with d.mu held.
func (d *keyCache) remove(el *list.Element) {
	e := d.order.Remove(el).(*entry)
	delete(d.index, e.key)
}

func (d *keyCache) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

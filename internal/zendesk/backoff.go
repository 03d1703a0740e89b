package zendesk

import (
	"sync"
	"time"
)

// advisoryBackOff implements backoff.BackOff. The next wait is the duration
// the server advised on the last 429, or the fixed fallback otherwise.
type advisoryBackOff struct {
	mu       sync.Mutex
	fallback time.Duration
	advised  time.Duration
	pending  bool
}

func newAdvisoryBackOff(fallback time.Duration) *advisoryBackOff {
	return &advisoryBackOff{fallback: fallback}
}

func (b *advisoryBackOff) advise(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advised = d
	b.pending = true
}

func (b *advisoryBackOff) NextBackOff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending {
		b.pending = false
		return b.advised
	}
	return b.fallback
}

func (b *advisoryBackOff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = false
	b.advised = 0
}

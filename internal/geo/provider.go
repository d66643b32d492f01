package geo

import (
	"context"
	"log"
	"time"

	"github.com/patrickmn/go-cache"
)

// Fix is a single location observation. The zero value doubles as the
// "unknown" sentinel written when the platform cannot produce a position.
type Fix struct {
	Lat float64
	Lng float64
}

// Unknown reports whether the fix is the fallback sentinel.
func (f Fix) Unknown() bool { return f.Lat == 0 && f.Lng == 0 }

// Locator abstracts the platform location API.
type Locator interface {
	Locate(ctx context.Context) (Fix, error)
}

const lastFixKey = "last_fix"

// Provider captures best-effort coordinates with a bounded wait and a
// cached-fix tolerance. It never returns an error: presence confirmation
// must not be blocked by location unavailability.
type Provider struct {
	locator Locator
	timeout time.Duration
	cache   *cache.Cache
}

// NewProvider wraps a platform locator. timeout bounds each live lookup;
// maxAge is how long a previous fix may be reused.
func NewProvider(locator Locator, timeout, maxAge time.Duration) *Provider {
	return &Provider{
		locator: locator,
		timeout: timeout,
		cache:   cache.New(maxAge, maxAge),
	}
}

// Current returns a recent cached fix if one exists, otherwise asks the
// platform with a bounded wait. Timeouts and errors degrade to the
// unknown sentinel.
func (p *Provider) Current(ctx context.Context) Fix {
	if cached, found := p.cache.Get(lastFixKey); found {
		return cached.(Fix)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type located struct {
		fix Fix
		err error
	}
	// The lookup runs in its own goroutine so a locator that ignores the
	// context cannot stall the caller past the deadline.
	ch := make(chan located, 1)
	go func() {
		fix, err := p.locator.Locate(ctx)
		ch <- located{fix: fix, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			log.Printf("geolocation unavailable, using fallback coordinates: %v", res.err)
			return Fix{}
		}
		p.cache.SetDefault(lastFixKey, res.fix)
		return res.fix
	case <-ctx.Done():
		log.Printf("geolocation timed out after %s, using fallback coordinates", p.timeout)
		return Fix{}
	}
}

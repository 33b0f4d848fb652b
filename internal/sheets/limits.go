package sheets

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/montenegronyc/scoreboard/internal/config"
)

// Limiters hands out one request limiter per spreadsheet, so clients rebuilt
// on a config reload keep the spacing of the client they replace.
type Limiters struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
}

// NewLimiters returns an empty set.
func NewLimiters() *Limiters {
	return &Limiters{m: make(map[string]*rate.Limiter)}
}

// For returns the limiter for the sheet cfg points at, creating it on first
// use. A changed min_request_interval is applied to the existing limiter.
func (l *Limiters) For(cfg config.SourceConfig) *rate.Limiter {
	key := cfg.BaseURL + "\x00" + cfg.SheetID

	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.m[key]
	if !ok {
		lim = newLimiter(cfg.MinRequestInterval)
		l.m[key] = lim
		return lim
	}
	if want := limitFor(cfg.MinRequestInterval); lim.Limit() != want {
		lim.SetLimit(want)
	}
	return lim
}

// WithLimiters draws the client's limiter from l instead of creating its own.
func WithLimiters(l *Limiters) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.limiter = l.For(c.cfg)
		}
	}
}

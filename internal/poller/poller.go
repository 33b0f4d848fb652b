package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/leaderboard"
	"github.com/montenegronyc/scoreboard/internal/sheets"
	"github.com/montenegronyc/scoreboard/internal/store"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Result describes one completed fetch.
type Result struct {
	Source   string
	Snapshot types.Snapshot
	Board    store.Board
	Duration time.Duration
}

// Observer is called after a fetch result has been applied to the store.
// Observers run on the fetch goroutine and must not block for long.
type Observer func(Result)

// Option configures a Poller.
type Option func(*Poller)

// WithClock injects the clock driving the ticker.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithInterval sets the initial poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithObserver registers fn to run after every applied result.
func WithObserver(fn Observer) Option {
	return func(p *Poller) { p.observers = append(p.observers, fn) }
}

// WithDiscardObserver registers fn to run for results that were dropped
// because a newer result or a new source superseded them.
func WithDiscardObserver(fn Observer) Option {
	return func(p *Poller) { p.discarded = append(p.discarded, fn) }
}

// Poller periodically fetches from a Source and applies the result to a Store.
type Poller struct {
	st        *store.Store
	clock     clockwork.Clock
	tracker   *leaderboard.Tracker
	observers []Observer
	discarded []Observer

	mu       sync.Mutex
	src      sheets.Source
	gen      uint64 // bumped by SetSource
	seq      uint64 // last issued fetch
	applied  uint64 // last applied fetch
	interval time.Duration

	refresh chan struct{}
	reset   chan struct{}

	idle func() // called by Run each time it settles with no fetch running
}

// New returns a Poller for src writing into st. Call Run to start it.
func New(src sheets.Source, st *store.Store, opts ...Option) *Poller {
	p := &Poller{
		st:       st,
		clock:    clockwork.NewRealClock(),
		tracker:  leaderboard.NewTracker(),
		src:      src,
		interval: config.DefaultPollInterval,
		refresh:  make(chan struct{}, 1),
		reset:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Interval returns the current poll interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// SetInterval changes the poll interval. The running ticker is re-armed.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	changed := p.interval != d
	p.interval = d
	p.mu.Unlock()
	if changed {
		select {
		case p.reset <- struct{}{}:
		default:
		}
	}
}

// SetSource replaces the source and forgets the score baseline. Any fetch
// still in flight against the old source is discarded when it returns.
// A fetch against the new source is requested immediately.
func (p *Poller) SetSource(src sheets.Source) {
	p.mu.Lock()
	p.src = src
	p.gen++
	p.tracker.Reset()
	p.mu.Unlock()
	p.Refresh()
}

// Refresh requests a fetch now. If one is already running, a single
// follow-up fetch runs after it completes.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run fetches once immediately, then on every tick, until ctx is cancelled.
// It returns after the ticker is stopped and any in-flight fetch has returned.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.Interval())
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	// done carries the clock reading taken when a fetch returned.
	done := make(chan time.Time, 1)
	var lastDone time.Time
	inFlight, pending := false, false
	start := func() {
		inFlight = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.poll(ctx)
			done <- p.clock.Now()
		}()
	}

	slog.Info("poller: started", "source", p.SourceName(), "interval", p.Interval())
	start()
	for {
		select {
		case <-ctx.Done():
			slog.Info("poller: stopping")
			return

		case fired := <-ticker.Chan():
			// A tick that fired while a fetch ran is dropped rather than run late,
			// even when it is only read after the fetch finished.
			if inFlight || !fired.After(lastDone) {
				slog.Debug("poller: tick skipped, fetch in flight")
				continue
			}
			start()

		case <-p.refresh:
			if inFlight {
				pending = true
				continue
			}
			start()

		case <-p.reset:
			d := p.Interval()
			ticker.Reset(d)
			slog.Info("poller: interval changed", "interval", d)

		case at := <-done:
			inFlight = false
			lastDone = at
			// Clear a buffered tick so a stale one cannot hold the slot of the next.
			select {
			case fired := <-ticker.Chan():
				if fired.After(at) {
					pending = true
				}
			default:
			}
			select {
			case <-p.refresh:
				pending = true
			default:
			}
			if pending {
				pending = false
				start()
				continue
			}
			if p.idle != nil {
				p.idle()
			}
		}
	}
}

// SourceName returns the name of the active source.
func (p *Poller) SourceName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src.Name()
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq, gen, src := p.seq, p.gen, p.src
	p.mu.Unlock()

	started := p.clock.Now()
	snap := src.Fetch(ctx)
	res := Result{Source: src.Name(), Snapshot: snap, Duration: p.clock.Since(started)}

	if ctx.Err() != nil && !snap.OK() {
		slog.Debug("poller: fetch abandoned on shutdown", "source", res.Source)
		return
	}

	p.mu.Lock()
	if seq <= p.applied || gen != p.gen {
		p.mu.Unlock()
		slog.Debug("poller: discarded stale result", "source", res.Source, "seq", seq)
		for _, fn := range p.discarded {
			fn(res)
		}
		return
	}
	p.applied = seq
	res.Snapshot = p.tracker.Mark(snap)
	res.Board = p.st.Apply(res.Snapshot)
	p.mu.Unlock()

	if snap.OK() {
		slog.Debug("poller: fetch applied", "source", res.Source, "entries", len(snap.Entries), "duration", res.Duration)
	} else {
		slog.Warn("poller: fetch failed, keeping last known entries",
			"source", res.Source,
			"kind", snap.ErrKind,
			"err", snap.Err,
		)
	}
	for _, fn := range p.observers {
		fn(res)
	}
}

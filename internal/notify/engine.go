package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/leaderboard"
	"github.com/montenegronyc/scoreboard/internal/poller"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Event types.
const (
	EventLeaderChanged   = "leader_changed"
	EventSourceDown      = "source_down"
	EventSourceRecovered = "source_recovered"
)

const maxHistoryLen = 100

// Event is one notification.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Source  string          `json:"source"`
	Leaders []string        `json:"leaders,omitempty"`
	Score   int             `json:"score,omitempty"`
	Kind    types.ErrorKind `json:"error_kind,omitempty"`
	Err     string          `json:"error,omitempty"`
	Message string          `json:"message"`
	At      time.Time       `json:"at"`
}

// Publisher delivers events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the clock used for timestamps and cooldown.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPublisher adds a bus publisher alongside the webhooks.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publishers = append(e.publishers, p) }
}

// WithHTTPClient replaces the client used for webhook delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// Engine watches applied poll results and emits events on transitions.
//
// Engine is safe for concurrent use.
type Engine struct {
	cooldown   time.Duration
	webhooks   []config.WebhookConfig
	publishers []Publisher
	client     *http.Client
	clock      clockwork.Clock

	mu           sync.Mutex
	seeded       bool     // a successful poll has set the leader baseline
	leaders      []string // leaders of the last successful poll
	healthy      bool     // last poll succeeded
	down         bool     // failing since the last success
	downNotified bool
	lastDown     time.Time
	history      []Event

	wg sync.WaitGroup
}

// New creates an Engine from the notify configuration.
// An Engine with no webhooks and no publishers still records history.
func New(cfg config.NotifyConfig, opts ...Option) *Engine {
	e := &Engine{
		cooldown: cfg.Cooldown,
		webhooks: cfg.Webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
		clock:    clockwork.NewRealClock(),
	}
	if e.cooldown <= 0 {
		e.cooldown = config.DefaultNotifyCooldown
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Observe evaluates one applied poll result. Use as a poller.Observer.
func (e *Engine) Observe(r poller.Result) {
	now := e.clock.Now()

	e.mu.Lock()
	var events []Event
	if r.Snapshot.OK() {
		if e.down && e.downNotified {
			events = append(events, e.newEvent(EventSourceRecovered, r.Source, now,
				fmt.Sprintf("Scoreboard source %s is back", r.Source)))
		}
		e.down, e.downNotified, e.healthy = false, false, true

		leaders := leaderboard.Leaders(r.Board.Entries)
		if e.seeded && len(leaders) > 0 && !slices.Equal(leaders, e.leaders) {
			ev := e.newEvent(EventLeaderChanged, r.Source, now, leaderMessage(leaders, leaderboard.MaxScore(r.Board.Entries)))
			ev.Leaders = leaders
			ev.Score = leaderboard.MaxScore(r.Board.Entries)
			events = append(events, ev)
		}
		e.leaders = leaders
		e.seeded = true
	} else {
		if e.healthy && !e.down {
			e.down = true
			if now.Sub(e.lastDown) >= e.cooldown {
				ev := e.newEvent(EventSourceDown, r.Source, now,
					fmt.Sprintf("Scoreboard source %s is failing: %s", r.Source, r.Snapshot.Err))
				ev.Kind = r.Snapshot.ErrKind
				ev.Err = r.Snapshot.Err
				events = append(events, ev)
				e.lastDown = now
				e.downNotified = true
			}
		}
		e.healthy = false
	}
	for _, ev := range events {
		e.history = append(e.history, ev)
	}
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	e.mu.Unlock()

	for _, ev := range events {
		slog.Info("notify: event", "type", ev.Type, "source", ev.Source, "message", ev.Message)
		e.wg.Add(1)
		go func(ev Event) {
			defer e.wg.Done()
			e.deliver(ev)
		}(ev)
	}
}

// Recent returns the most recent events, newest first.
func (e *Engine) Recent() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.history))
	for i, ev := range e.history {
		out[len(out)-1-i] = ev
	}
	return out
}

// Close waits for in-flight deliveries and closes every publisher.
func (e *Engine) Close() error {
	e.wg.Wait()
	var errs []error
	for _, p := range e.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: close publishers: %v", errs)
	}
	return nil
}

// newEvent must be called with e.mu held.
func (e *Engine) newEvent(typ, source string, at time.Time, msg string) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		Source:  source,
		Message: msg,
		At:      at,
	}
}

func leaderMessage(leaders []string, score int) string {
	switch len(leaders) {
	case 1:
		return fmt.Sprintf("%s takes the lead with %d", leaders[0], score)
	case 2:
		return fmt.Sprintf("%s and %s are tied for the lead at %d", leaders[0], leaders[1], score)
	default:
		return fmt.Sprintf("%s and %s are tied for the lead at %d",
			strings.Join(leaders[:len(leaders)-1], ", "), leaders[len(leaders)-1], score)
	}
}

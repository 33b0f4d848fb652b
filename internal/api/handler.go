package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/notify"
	"github.com/montenegronyc/scoreboard/internal/store"
)

// Refresher triggers an out-of-band poll.
type Refresher interface {
	Refresh()
}

// EventLister returns recent notifications, newest first.
type EventLister interface {
	Recent() []notify.Event
}

// Option configures a Handler.
type Option func(*Handler)

// WithRefresher enables POST /api/v1/refresh.
func WithRefresher(r Refresher) Option {
	return func(h *Handler) { h.refresher = r }
}

// WithEvents enables GET /api/v1/events.
func WithEvents(e EventLister) Option {
	return func(h *Handler) { h.events = e }
}

// WithStaleAfter sets how long without a successful poll before the board is stale.
func WithStaleAfter(d time.Duration) Option {
	return func(h *Handler) { h.staleAfter = d }
}

// WithSourceName reports the active source in health output.
func WithSourceName(fn func() string) Option {
	return func(h *Handler) { h.sourceName = fn }
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(h *Handler) { h.title = title }
}

// WithClock injects the clock used for staleness checks.
func WithClock(c clockwork.Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store      *store.Store
	refresher  Refresher
	events     EventLister
	staleAfter time.Duration
	sourceName func() string
	title      string
	clock      clockwork.Clock
	router     chi.Router
}

// New creates a Handler reading from st and registers all routes.
func New(st *store.Store, opts ...Option) *Handler {
	h := &Handler{
		store:      st,
		staleAfter: config.DefaultStaleAfter,
		title:      config.DefaultTitle,
		clock:      clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(h)
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/scoreboard", h.scoreboard)
		r.Get("/health", h.health)
		r.Post("/refresh", h.refresh)
		r.Get("/events", h.listEvents)
		r.Get("/chart.png", h.chart)
	})
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// scoreboard returns GET /api/v1/scoreboard.
func (h *Handler) scoreboard(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, BuildBoard(h.store, h.clock.Now(), h.staleAfter))
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	b := h.store.Board()
	stale := h.store.Stale(now, h.staleAfter)

	resp := HealthResponse{
		State:       healthState(b, stale),
		EntryCount:  len(b.Entries),
		LastSuccess: formatTime(b.UpdatedAt),
		LastCheck:   formatTime(b.CheckedAt),
		Error:       b.Err,
		ErrorKind:   b.ErrKind,
		Diagnostics: computeDiagnostics(b, stale, now),
	}
	if h.sourceName != nil {
		resp.Source = h.sourceName()
	}
	jsonResp(w, http.StatusOK, resp)
}

// refresh handles POST /api/v1/refresh. The poll runs asynchronously.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		jsonErr(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}
	h.refresher.Refresh()
	jsonResp(w, http.StatusAccepted, refreshResponse{Status: "accepted"})
}

// listEvents returns GET /api/v1/events.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		jsonResp(w, http.StatusOK, []notify.Event{})
		return
	}
	jsonResp(w, http.StatusOK, h.events.Recent())
}

// --- helpers ----------------------------------------------------------------

func healthState(b store.Board, stale bool) string {
	switch {
	case !b.Loaded:
		return StateLoading
	case b.HasError():
		return StateError
	case stale:
		return StateStale
	default:
		return StateLive
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

package ui

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/montenegronyc/scoreboard/internal/api"
	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// LoadingText is shown until the first poll completes.
const LoadingText = "INITIALIZING SCOREBOARD..."

// pageData is the template input for index.html.
type pageData struct {
	Title      string
	ScoreLabel string
	Loading    string
	Initial    template.JS
}

// Option configures a Handler.
type Option func(*Handler)

// WithStaleAfter sets the stale threshold used for the embedded board.
func WithStaleAfter(d time.Duration) Option {
	return func(h *Handler) { h.staleAfter = d }
}

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// Handler serves GET / and /static/*.
type Handler struct {
	store      *store.Store
	ui         config.UIConfig
	staleAfter time.Duration
	clock      clockwork.Clock
	router     chi.Router
}

// New returns a Handler that renders the page from st.
func New(st *store.Store, ui config.UIConfig, opts ...Option) *Handler {
	h := &Handler{
		store:      st,
		ui:         ui,
		staleAfter: config.DefaultStaleAfter,
		clock:      clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(h)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded at build time
	}

	r := chi.NewRouter()
	r.Get("/", h.page)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	h.router = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) page(w http.ResponseWriter, _ *http.Request) {
	board := api.BuildBoard(h.store, h.clock.Now(), h.staleAfter)
	initial, err := json.Marshal(board)
	if err != nil {
		http.Error(w, "encode board", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = pageTmpl.Execute(w, pageData{
		Title:      h.ui.Title,
		ScoreLabel: h.ui.ScoreLabel,
		Loading:    LoadingText,
		// json.Marshal escapes <, > and & so the payload cannot close the script tag.
		Initial: template.JS(initial), //nolint:gosec
	})
	if err != nil {
		slog.Error("ui: render page", "err", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultBaseURL            = "https://sheets.googleapis.com/v4/spreadsheets"
	DefaultRange              = "Sheet1!A:C"
	DefaultAPIKeyEnv          = "GOOGLE_API_KEY"
	DefaultMinRequestInterval = 10 * time.Second
	DefaultRequestTimeout     = 10 * time.Second
	DefaultPollInterval       = 5 * time.Second
	DefaultHTTPPort           = 8080
	DefaultKeepalive          = 30 * time.Second
	DefaultStaleAfter         = time.Minute
	DefaultNotifyCooldown     = 5 * time.Minute
	DefaultHeaderRow          = 1
	DefaultValueRow           = 2
	DefaultTitle              = "TEAM SCOREBOARD"
	DefaultScoreLabel         = "SIGNUPS"
)

// DefaultColumns are the two team columns of the stock sheet layout.
var DefaultColumns = []string{"B", "C"}

// Source types.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
)

// Config is the top-level scoreboard configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Schema SchemaConfig `yaml:"schema"`
	Poll   PollConfig   `yaml:"poll"`
	Server ServerConfig `yaml:"server"`
	Notify NotifyConfig `yaml:"notify"`
	UI     UIConfig     `yaml:"ui"`
	Log    LogConfig    `yaml:"log"`
}

// SourceConfig describes where scores are read from.
type SourceConfig struct {
	// Type is sheets (Google Sheets values API) or xlsx (local workbook).
	Type string `yaml:"type"`

	// BaseURL is the spreadsheet API root; the sheet id and range are
	// appended as path segments.
	BaseURL string `yaml:"base_url"`

	// SheetID is the spreadsheet identifier from the sheet URL.
	SheetID string `yaml:"sheet_id"`

	// Range is an A1 range such as "Sheet1!A:C".
	Range string `yaml:"range"`

	// APIKeyEnv is the name of the environment variable that holds the key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Path and Sheet locate the workbook when Type is xlsx.
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`

	// MinRequestInterval is the minimum spacing between two outbound
	// requests, regardless of how often the poller asks.
	MinRequestInterval time.Duration `yaml:"min_request_interval"`

	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`
}

// APIKey returns the API key resolved from the environment.
// Returns empty string if APIKeyEnv is unset or the variable is not found.
func (s SourceConfig) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// SchemaConfig maps positions in the returned range to named entries.
// Rows are 1-based and columns are A1 letters, both counted from the
// top-left cell of the configured range.
type SchemaConfig struct {
	HeaderRow int      `yaml:"header_row"`
	ValueRow  int      `yaml:"value_row"`
	Columns   []string `yaml:"columns"`
}

// ColumnIndexes converts Columns to 0-based indexes.
func (s SchemaConfig) ColumnIndexes() ([]int, error) {
	out := make([]int, 0, len(s.Columns))
	for _, c := range s.Columns {
		idx, err := ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

// PollConfig controls the polling controller.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	// HTTPPort is the port the page, REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// AllowedOrigins enables CORS for the listed origins. Empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// KeepaliveInterval re-sends the current board to every WebSocket client
	// even when nothing changed.
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`

	// StaleAfter marks the board stale when no poll has succeeded for this long.
	StaleAfter time.Duration `yaml:"stale_after"`
}

// NotifyConfig holds leader-change and outage notification targets.
type NotifyConfig struct {
	// Cooldown suppresses repeated source_down notifications.
	Cooldown time.Duration   `yaml:"cooldown"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	NATS     NATSConfig      `yaml:"nats"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// NATSConfig enables publishing notification events to a NATS subject.
// An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// UIConfig holds the display text of the scoreboard page.
type UIConfig struct {
	Title      string `yaml:"title"`
	ScoreLabel string `yaml:"score_label"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the YAML config file at path.
// A missing file is not an error: defaults plus environment overrides are
// used, which is enough for the stock two-team sheet.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Type:               SourceSheets,
			BaseURL:            DefaultBaseURL,
			Range:              DefaultRange,
			APIKeyEnv:          DefaultAPIKeyEnv,
			MinRequestInterval: DefaultMinRequestInterval,
			Timeout:            DefaultRequestTimeout,
		},
		Schema: SchemaConfig{
			HeaderRow: DefaultHeaderRow,
			ValueRow:  DefaultValueRow,
			Columns:   append([]string(nil), DefaultColumns...),
		},
		Poll: PollConfig{
			Interval: DefaultPollInterval,
		},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			KeepaliveInterval: DefaultKeepalive,
			StaleAfter:        DefaultStaleAfter,
		},
		Notify: NotifyConfig{
			Cooldown: DefaultNotifyCooldown,
		},
		UI: UIConfig{
			Title:      DefaultTitle,
			ScoreLabel: DefaultScoreLabel,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyEnv overrides file values with environment variables when present.
// POLLING_INTERVAL is in milliseconds.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("SCOREBOARD_SHEET_ID"); v != "" {
		cfg.Source.SheetID = v
	}
	if v := os.Getenv("SCOREBOARD_RANGE"); v != "" {
		cfg.Source.Range = v
	}
	if v := os.Getenv("POLLING_INTERVAL"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid POLLING_INTERVAL %q: %w", v, err)
		}
		cfg.Poll.Interval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("SCOREBOARD_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCOREBOARD_HTTP_PORT %q: %w", v, err)
		}
		cfg.Server.HTTPPort = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Source.Type {
	case SourceSheets:
		if cfg.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required")
		}
		if cfg.Source.SheetID == "" {
			return fmt.Errorf("source.sheet_id is required")
		}
		if cfg.Source.Range == "" {
			return fmt.Errorf("source.range is required")
		}
		if cfg.Source.APIKey() == "" {
			return fmt.Errorf("source: api key env %q is not set", cfg.Source.APIKeyEnv)
		}
	case SourceXLSX:
		if cfg.Source.Path == "" {
			return fmt.Errorf("source.path is required for xlsx sources")
		}
	default:
		return fmt.Errorf("source.type: unknown type %q", cfg.Source.Type)
	}
	if cfg.Source.MinRequestInterval < 0 {
		return fmt.Errorf("source.min_request_interval must not be negative")
	}
	if cfg.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}

	if cfg.Schema.HeaderRow < 1 || cfg.Schema.ValueRow < 1 {
		return fmt.Errorf("schema rows are 1-based and must be positive")
	}
	if cfg.Schema.HeaderRow == cfg.Schema.ValueRow {
		return fmt.Errorf("schema.header_row and schema.value_row must differ")
	}
	if len(cfg.Schema.Columns) == 0 {
		return fmt.Errorf("schema.columns must list at least one column")
	}
	seen := make(map[int]bool, len(cfg.Schema.Columns))
	for i, c := range cfg.Schema.Columns {
		idx, err := ColumnIndex(c)
		if err != nil {
			return fmt.Errorf("schema.columns[%d]: %w", i, err)
		}
		if seen[idx] {
			return fmt.Errorf("schema.columns[%d]: duplicate column %q", i, c)
		}
		seen[idx] = true
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", cfg.Server.HTTPPort)
	}
	if cfg.Server.KeepaliveInterval <= 0 {
		return fmt.Errorf("server.keepalive_interval must be positive")
	}

	for i, wh := range cfg.Notify.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notify.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	if cfg.Notify.NATS.URL != "" && cfg.Notify.NATS.Subject == "" {
		return fmt.Errorf("notify.nats.subject is required when notify.nats.url is set")
	}

	if strings.TrimSpace(cfg.UI.Title) == "" {
		return fmt.Errorf("ui.title must not be empty")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}

// ColumnIndex converts an A1 column label ("A", "C", "AA") to a 0-based index.
func ColumnIndex(label string) (int, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return 0, fmt.Errorf("empty column label")
	}
	n := 0
	for _, r := range label {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column label %q", label)
		}
		n = n*26 + int(r-'A'+1)
		if n > 18278 { // ZZZ
			return 0, fmt.Errorf("column label %q too large", label)
		}
	}
	return n - 1, nil
}

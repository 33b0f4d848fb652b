package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHEETS_KEY", "secret")
	yaml := `
source:
  type: sheets
  sheet_id: "abc123"
  range: "Teams!A1:D2"
  api_key_env: SHEETS_KEY
  min_request_interval: 15s
schema:
  header_row: 1
  value_row: 2
  columns: [B, C, D]
poll:
  interval: 3s
server:
  http_port: 9090
`
	cfg := loadFromString(t, yaml)

	if cfg.Source.SheetID != "abc123" {
		t.Errorf("sheet_id: got %q", cfg.Source.SheetID)
	}
	if cfg.Source.Range != "Teams!A1:D2" {
		t.Errorf("range: got %q", cfg.Source.Range)
	}
	if cfg.Source.APIKey() != "secret" {
		t.Errorf("APIKey(): got %q", cfg.Source.APIKey())
	}
	if cfg.Source.MinRequestInterval != 15*time.Second {
		t.Errorf("min_request_interval: got %v", cfg.Source.MinRequestInterval)
	}
	if cfg.Poll.Interval != 3*time.Second {
		t.Errorf("poll.interval: got %v", cfg.Poll.Interval)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port: got %d", cfg.Server.HTTPPort)
	}
	idx, err := cfg.Schema.ColumnIndexes()
	if err != nil {
		t.Fatalf("ColumnIndexes: %v", err)
	}
	if len(idx) != 3 || idx[0] != 1 || idx[2] != 3 {
		t.Errorf("ColumnIndexes: got %v, want [1 2 3]", idx)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(DefaultAPIKeyEnv, "k")
	cfg := loadFromString(t, `
source:
  sheet_id: "abc"
`)

	if cfg.Source.Type != SourceSheets {
		t.Errorf("default type: got %q", cfg.Source.Type)
	}
	if cfg.Source.BaseURL != DefaultBaseURL {
		t.Errorf("default base_url: got %q", cfg.Source.BaseURL)
	}
	if cfg.Source.Range != DefaultRange {
		t.Errorf("default range: got %q", cfg.Source.Range)
	}
	if cfg.Source.MinRequestInterval != DefaultMinRequestInterval {
		t.Errorf("default min_request_interval: got %v", cfg.Source.MinRequestInterval)
	}
	if cfg.Poll.Interval != DefaultPollInterval {
		t.Errorf("default poll.interval: got %v, want %v", cfg.Poll.Interval, DefaultPollInterval)
	}
	if cfg.Schema.HeaderRow != 1 || cfg.Schema.ValueRow != 2 {
		t.Errorf("default rows: got %d/%d", cfg.Schema.HeaderRow, cfg.Schema.ValueRow)
	}
	if len(cfg.Schema.Columns) != 2 || cfg.Schema.Columns[0] != "B" || cfg.Schema.Columns[1] != "C" {
		t.Errorf("default columns: got %v", cfg.Schema.Columns)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("default http_port: got %d", cfg.Server.HTTPPort)
	}
	if cfg.UI.Title != DefaultTitle || cfg.UI.ScoreLabel != DefaultScoreLabel {
		t.Errorf("default ui: got %+v", cfg.UI)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(DefaultAPIKeyEnv, "k")
	t.Setenv("SCOREBOARD_SHEET_ID", "from-env")
	t.Setenv("POLLING_INTERVAL", "2500")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Source.SheetID != "from-env" {
		t.Errorf("sheet_id: got %q", cfg.Source.SheetID)
	}
	if cfg.Poll.Interval != 2500*time.Millisecond {
		t.Errorf("poll.interval: got %v, want 2.5s", cfg.Poll.Interval)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(DefaultAPIKeyEnv, "k")
	t.Setenv("SCOREBOARD_RANGE", "Other!A:C")
	t.Setenv("SCOREBOARD_HTTP_PORT", "7070")

	cfg := loadFromString(t, `
source:
  sheet_id: "abc"
  range: "Sheet1!A:C"
`)
	if cfg.Source.Range != "Other!A:C" {
		t.Errorf("range: got %q", cfg.Source.Range)
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("http_port: got %d", cfg.Server.HTTPPort)
	}
}

func TestLoad_InvalidPollingIntervalEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(DefaultAPIKeyEnv, "k")
	t.Setenv("POLLING_INTERVAL", "five")

	_, err := loadStringErr(t, "source:\n  sheet_id: abc\n")
	if err == nil {
		t.Fatal("expected error for non-numeric POLLING_INTERVAL, got nil")
	}
}

func TestLoad_XLSXSource(t *testing.T) {
	clearEnv(t)
	cfg := loadFromString(t, `
source:
  type: xlsx
  path: scores.xlsx
`)
	if cfg.Source.Type != SourceXLSX || cfg.Source.Path != "scores.xlsx" {
		t.Errorf("source: got %+v", cfg.Source)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing sheet id", "source:\n  type: sheets\n"},
		{"unknown source type", "source:\n  type: csv\n  sheet_id: x\n"},
		{"xlsx without path", "source:\n  type: xlsx\n"},
		{"same rows", "source:\n  sheet_id: x\nschema:\n  header_row: 2\n  value_row: 2\n"},
		{"zero row", "source:\n  sheet_id: x\nschema:\n  header_row: 0\n"},
		{"bad column", "source:\n  sheet_id: x\nschema:\n  columns: [B, \"1\"]\n"},
		{"duplicate column", "source:\n  sheet_id: x\nschema:\n  columns: [B, b]\n"},
		{"no columns", "source:\n  sheet_id: x\nschema:\n  columns: []\n"},
		{"negative poll", "source:\n  sheet_id: x\npoll:\n  interval: -1s\n"},
		{"unknown webhook", "source:\n  sheet_id: x\nnotify:\n  webhooks:\n    - type: pager\n"},
		{"nats without subject", "source:\n  sheet_id: x\nnotify:\n  nats:\n    url: nats://localhost:4222\n"},
		{"blank title", "source:\n  sheet_id: x\nui:\n  title: \" \"\n"},
		{"bad log level", "source:\n  sheet_id: x\nlog:\n  level: loud\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(DefaultAPIKeyEnv, "k")
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatalf("expected error for %s, got nil", tc.name)
			}
		})
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(DefaultAPIKeyEnv, "")
	if _, err := loadStringErr(t, "source:\n  sheet_id: x\n"); err == nil {
		t.Fatal("expected error when the api key env is empty, got nil")
	}
}

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"A", 0},
		{"b", 1},
		{"Z", 25},
		{"AA", 26},
		{" C ", 2},
	}
	for _, tc := range tests {
		got, err := ColumnIndex(tc.in)
		if err != nil {
			t.Errorf("ColumnIndex(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "1", "A1", "ÄB"} {
		if _, err := ColumnIndex(bad); err == nil {
			t.Errorf("ColumnIndex(%q): expected error", bad)
		}
	}
}

func TestWebhookConfig_URL(t *testing.T) {
	t.Setenv("SLACK_URL", "https://hooks.slack.example/abc")
	w := WebhookConfig{Type: "slack", URLEnv: "SLACK_URL"}
	if got := w.URL(); got != "https://hooks.slack.example/abc" {
		t.Errorf("URL(): got %q", got)
	}
	if got := (WebhookConfig{Type: "slack"}).URL(); got != "" {
		t.Errorf("URL() with no URLEnv: got %q, want empty", got)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	t.Setenv(DefaultAPIKeyEnv, "k")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "source:\n  sheet_id: x\npoll:\n  interval: 5s\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "source:\n  sheet_id: x\npoll:\n  interval: 9s\n")

	select {
	case c := <-got:
		if c.Poll.Interval != 9*time.Second {
			t.Errorf("reloaded interval: got %v, want 9s", c.Poll.Interval)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed within 3s")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SCOREBOARD_SHEET_ID", "SCOREBOARD_RANGE", "POLLING_INTERVAL",
		"SCOREBOARD_HTTP_PORT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
}

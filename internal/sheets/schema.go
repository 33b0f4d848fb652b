package sheets

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

var (
	// ErrNoData is returned when the response has no rows at all.
	ErrNoData = errors.New("no data found in the specified range")

	// ErrNoScores is returned when rows exist but no configured column has
	// both a name and a value.
	ErrNoScores = errors.New("no scores found in the configured columns")

	// ErrMalformed wraps a body that could not be decoded.
	ErrMalformed = errors.New("malformed response")
)

// Schema locates entries inside the returned grid. Rows and columns are
// 0-based offsets from the top-left cell of the requested range.
type Schema struct {
	HeaderRow int
	ValueRow  int
	Columns   []int
	labels    []string
}

// NewSchema converts the 1-based, A1-lettered config form.
func NewSchema(cfg config.SchemaConfig) (Schema, error) {
	cols, err := cfg.ColumnIndexes()
	if err != nil {
		return Schema{}, fmt.Errorf("sheets: schema: %w", err)
	}
	if cfg.HeaderRow < 1 || cfg.ValueRow < 1 {
		return Schema{}, fmt.Errorf("sheets: schema: rows must be positive")
	}
	return Schema{
		HeaderRow: cfg.HeaderRow - 1,
		ValueRow:  cfg.ValueRow - 1,
		Columns:   cols,
		labels:    append([]string(nil), cfg.Columns...),
	}, nil
}

// Parse extracts one entry per configured column from rows.
// A column is skipped when its name or value cell is missing or blank, or
// when an earlier column already used the same name.
// The returned entries are in column order and not yet ranked.
func (s Schema) Parse(rows [][]string) ([]types.ScoreEntry, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	entries := make([]types.ScoreEntry, 0, len(s.Columns))
	seen := make(map[string]string, len(s.Columns))
	for i, col := range s.Columns {
		name := strings.TrimSpace(cell(rows, s.HeaderRow, col))
		raw := cell(rows, s.ValueRow, col)
		if name == "" || strings.TrimSpace(raw) == "" {
			continue
		}
		if first, dup := seen[name]; dup {
			slog.Warn("sheets: skipping column with duplicate name",
				"column", s.label(i), "name", name, "first_column", first)
			continue
		}
		score, err := ParseScore(raw)
		if err != nil {
			slog.Warn("sheets: skipping column", "column", s.label(i), "name", name, "err", err)
			continue
		}
		seen[name] = s.label(i)
		entries = append(entries, types.ScoreEntry{Name: name, Score: score})
	}

	if len(entries) == 0 {
		return nil, ErrNoScores
	}
	return entries, nil
}

func (s Schema) label(i int) string {
	if i < len(s.labels) {
		return s.labels[i]
	}
	return strconv.Itoa(s.Columns[i])
}

// cell returns rows[r][c], or "" when the grid is ragged and the cell is absent.
func cell(rows [][]string, r, c int) string {
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// ParseScore keeps only the decimal digits of raw and parses the result.
// "1,234 pts" is 1234, "-5" is 5, and a cell with no digits at all is 0.
func ParseScore(raw string) (int, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, fmt.Errorf("score %q: %w", raw, err)
	}
	return n, nil
}

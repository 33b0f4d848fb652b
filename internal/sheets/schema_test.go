package sheets

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"120", 120},
		{"1,234 pts", 1234},
		{" 42 ", 42},
		{"-5", 5},
		{"12.5", 125},
		{"n/a", 0},
		{"", 0},
	}
	for _, tc := range tests {
		got, err := ParseScore(tc.in)
		if err != nil {
			t.Errorf("ParseScore(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseScore(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := ParseScore("99999999999999999999999"); err == nil {
		t.Error("ParseScore overflow: expected error")
	}
}

func TestSchemaParse(t *testing.T) {
	s := defaultSchema(t)

	got, err := s.Parse([][]string{
		{"Team", " Alpha ", "Beta"},
		{"Score", "120", "95"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []types.ScoreEntry{{Name: "Alpha", Score: 120}, {Name: "Beta", Score: 95}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaParse_SkipsIncompleteColumns(t *testing.T) {
	s := defaultSchema(t)
	tests := []struct {
		name string
		rows [][]string
		want []string
	}{
		{"ragged value row", [][]string{{"", "Alpha", "Beta"}, {"", "3"}}, []string{"Alpha"}},
		{"blank name", [][]string{{"", "  ", "Beta"}, {"", "3", "4"}}, []string{"Beta"}},
		{"blank value", [][]string{{"", "Alpha", "Beta"}, {"", "", "4"}}, []string{"Beta"}},
		{"no-digit value counts as zero", [][]string{{"", "Alpha", "Beta"}, {"", "tbd", "4"}}, []string{"Alpha", "Beta"}},
		{"column A is not read", [][]string{{"Gamma", "Alpha"}, {"9", "1"}}, []string{"Alpha"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := s.Parse(tc.rows)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			var names []string
			for _, e := range entries {
				names = append(names, e.Name)
			}
			if diff := cmp.Diff(tc.want, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaParse_AtMostOneEntryPerColumn(t *testing.T) {
	s := defaultSchema(t)
	rows := [][]string{
		{"", "Alpha", "Beta", "Gamma", "Delta"},
		{"", "1", "2", "3", "4"},
		{"", "Epsilon", "Zeta"},
		{"", "5", "6"},
	}
	entries, err := s.Parse(rows)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) > len(s.Columns) {
		t.Errorf("got %d entries for %d columns", len(entries), len(s.Columns))
	}
}

func TestSchemaParse_DuplicateNameKeepsFirstColumn(t *testing.T) {
	s, err := NewSchema(config.SchemaConfig{HeaderRow: 1, ValueRow: 2, Columns: []string{"B", "C", "D"}})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}

	got, err := s.Parse([][]string{
		{"", "Alpha", " Alpha ", "Beta"},
		{"", "3", "9", "4"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []types.ScoreEntry{{Name: "Alpha", Score: 3}, {Name: "Beta", Score: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaParse_Errors(t *testing.T) {
	s := defaultSchema(t)
	if _, err := s.Parse(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("empty rows: got %v, want ErrNoData", err)
	}
	if _, err := s.Parse([][]string{{"", "", ""}, {"", "", ""}}); !errors.Is(err, ErrNoScores) {
		t.Errorf("blank grid: got %v, want ErrNoScores", err)
	}
}

func TestSchemaParse_CustomLayout(t *testing.T) {
	s, err := NewSchema(config.SchemaConfig{HeaderRow: 3, ValueRow: 1, Columns: []string{"D", "A"}})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	got, err := s.Parse([][]string{
		{"10", "", "", "20"},
		{"ignored"},
		{"Red", "", "", "Blue"},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []types.ScoreEntry{{Name: "Blue", Score: 20}, {Name: "Red", Score: 10}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSchema_RejectsBadColumn(t *testing.T) {
	if _, err := NewSchema(config.SchemaConfig{HeaderRow: 1, ValueRow: 2, Columns: []string{"B2"}}); err == nil {
		t.Fatal("expected error for column label B2")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want types.ErrorKind
	}{
		{nil, types.ErrKindNone},
		{ErrNoData, types.ErrKindMalformed},
		{fmt.Errorf("%w: decode", ErrMalformed), types.ErrKindMalformed},
		{ErrNoScores, types.ErrKindMissing},
		{fmt.Errorf("get: %w", &StatusError{Code: 500}), types.ErrKindStatus},
		{fmt.Errorf("get: %w", context.Canceled), types.ErrKindCanceled},
		{context.DeadlineExceeded, types.ErrKindTransport},
		{errors.New("dial tcp: connection refused"), types.ErrKindTransport},
	}
	for _, tc := range tests {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

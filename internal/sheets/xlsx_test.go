package sheets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

func TestWorkbook_Fetch(t *testing.T) {
	path := writeWorkbook(t, "Scores", map[string]any{
		"B1": "Beta", "C1": "Alpha",
		"B2": 40, "C2": "1,050",
	})

	w := NewWorkbook(path, "", defaultSchema(t))
	snap := w.Fetch(context.Background())
	if !snap.OK() {
		t.Fatalf("Fetch failed: %s", snap.Err)
	}
	want := []types.ScoreEntry{
		{Name: "Alpha", Score: 1050, IsLeader: true},
		{Name: "Beta", Score: 40},
	}
	if diff := cmp.Diff(want, snap.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkbook_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Scores", map[string]any{"B1": "Alpha", "B2": 3})
	if snap := NewWorkbook(path, "Scores", defaultSchema(t)).Fetch(context.Background()); !snap.OK() {
		t.Errorf("named sheet: %s", snap.Err)
	}
	snap := NewWorkbook(path, "Missing", defaultSchema(t)).Fetch(context.Background())
	if snap.ErrKind != types.ErrKindMalformed {
		t.Errorf("missing sheet: got kind %q (%s)", snap.ErrKind, snap.Err)
	}
}

func TestWorkbook_MissingFile(t *testing.T) {
	w := NewWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"), "", defaultSchema(t))
	snap := w.Fetch(context.Background())
	if snap.OK() || snap.ErrKind != types.ErrKindTransport {
		t.Errorf("missing file: got kind %q err %q", snap.ErrKind, snap.Err)
	}
}

func TestNew_SelectsSource(t *testing.T) {
	t.Setenv(config.DefaultAPIKeyEnv, "k")
	cfg := &config.Config{
		Source: config.SourceConfig{
			Type: config.SourceSheets, BaseURL: config.DefaultBaseURL,
			SheetID: "abc", Range: config.DefaultRange, APIKeyEnv: config.DefaultAPIKeyEnv,
		},
		Schema: config.SchemaConfig{HeaderRow: 1, ValueRow: 2, Columns: []string{"B", "C"}},
	}
	src, err := New(cfg)
	if err != nil {
		t.Fatalf("New(sheets): %v", err)
	}
	if src.Name() != "sheets:abc" {
		t.Errorf("Name: got %q", src.Name())
	}

	cfg.Source.Type = config.SourceXLSX
	cfg.Source.Path = "scores.xlsx"
	src, err = New(cfg)
	if err != nil {
		t.Fatalf("New(xlsx): %v", err)
	}
	if _, ok := src.(*Workbook); !ok {
		t.Errorf("New(xlsx) returned %T", src)
	}

	cfg.Source.Type = "csv"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unsupported type")
	}
}

// writeWorkbook saves a single-sheet workbook with the given cells.
func writeWorkbook(t *testing.T, sheet string, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for axis, v := range cells {
		if err := f.SetCellValue(sheet, axis, v); err != nil {
			t.Fatalf("set %s: %v", axis, err)
		}
	}
	path := filepath.Join(t.TempDir(), "scores.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

package sheets

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/xuri/excelize/v2"

	"github.com/montenegronyc/scoreboard/internal/leaderboard"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Workbook reads scores from a local .xlsx file on every Fetch, so edits
// saved to the file show up on the next poll.
type Workbook struct {
	path   string
	sheet  string
	schema Schema
	clock  clockwork.Clock
}

// NewWorkbook returns a Workbook source. An empty sheet name selects the
// first sheet in the file.
func NewWorkbook(path, sheet string, schema Schema) *Workbook {
	return &Workbook{path: path, sheet: sheet, schema: schema, clock: clockwork.NewRealClock()}
}

// Name implements Source.
func (w *Workbook) Name() string {
	return "xlsx:" + w.path
}

// Fetch implements Source.
func (w *Workbook) Fetch(ctx context.Context) types.Snapshot {
	if err := ctx.Err(); err != nil {
		return types.Failed(w.clock.Now(), types.ErrKindCanceled, err)
	}
	entries, err := w.read()
	if err != nil {
		return types.Failed(w.clock.Now(), Classify(err), err)
	}
	return types.Snapshot{
		Entries:   leaderboard.Rank(entries),
		FetchedAt: w.clock.Now(),
	}
}

func (w *Workbook) read() ([]types.ScoreEntry, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := w.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, ErrNoData
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformed, sheet, err)
	}
	return w.schema.Parse(rows)
}

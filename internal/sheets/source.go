package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/montenegronyc/scoreboard/internal/config"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Source is anything that can produce a ranked snapshot on demand.
type Source interface {
	// Fetch performs one read. It never returns an error: failures are
	// reported through Snapshot.Err and Snapshot.ErrKind.
	Fetch(ctx context.Context) types.Snapshot

	// Name identifies the source in logs and health output.
	Name() string
}

// New returns the Source described by cfg. opts apply to sheets clients only;
// pass WithLimiters when sources are rebuilt so request spacing carries over.
func New(cfg *config.Config, opts ...ClientOption) (Source, error) {
	schema, err := NewSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}
	switch cfg.Source.Type {
	case config.SourceSheets:
		return NewClient(cfg.Source, schema, opts...)
	case config.SourceXLSX:
		return NewWorkbook(cfg.Source.Path, cfg.Source.Sheet, schema), nil
	default:
		return nil, fmt.Errorf("sheets: unsupported source type %q", cfg.Source.Type)
	}
}

// Classify maps a fetch error to the kind reported in the snapshot.
func Classify(err error) types.ErrorKind {
	var se *StatusError
	switch {
	case err == nil:
		return types.ErrKindNone
	case errors.Is(err, ErrNoData), errors.Is(err, ErrMalformed):
		return types.ErrKindMalformed
	case errors.Is(err, ErrNoScores):
		return types.ErrKindMissing
	case errors.As(err, &se):
		return types.ErrKindStatus
	case errors.Is(err, context.Canceled):
		return types.ErrKindCanceled
	default:
		return types.ErrKindTransport
	}
}

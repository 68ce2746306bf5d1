package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/aec/internal/db"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/run"
)

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	Kind   string // optional: "compile" or "decode"
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Items      []run.Summary `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// History lists journaled runs, newest first.
func History(ctx context.Context, database *sql.DB, input HistoryInput) (*HistoryOutput, error) {
	kind, err := run.ParseKind(input.Kind)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	offset := max(input.Offset, 0)

	items, total, err := db.ListRuns(ctx, database, kind, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []run.Summary{}
	}

	return &HistoryOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}

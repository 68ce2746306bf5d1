package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/aec/internal/db"
	"github.com/hpungsan/aec/internal/errors"
)

// PruneInput contains parameters for the Prune operation.
type PruneInput struct {
	OlderThanDays int // required, > 0
}

// PruneOutput contains the result of the Prune operation.
type PruneOutput struct {
	Pruned  int    `json:"pruned"`
	Message string `json:"message"`
}

// Prune permanently deletes runs older than the given age.
func Prune(ctx context.Context, database *sql.DB, input PruneInput) (*PruneOutput, error) {
	if input.OlderThanDays <= 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be positive")
	}

	cutoff := time.Now().Add(-time.Duration(input.OlderThanDays) * 24 * time.Hour).Unix()
	count, err := db.DeleteRunsBefore(ctx, database, cutoff)
	if err != nil {
		return nil, err
	}

	return &PruneOutput{
		Pruned:  count,
		Message: formatPruneMessage(count, input.OlderThanDays),
	}, nil
}

// formatPruneMessage creates a human-readable message for the prune result.
func formatPruneMessage(count, olderThanDays int) string {
	if count == 0 {
		return "No runs to prune"
	}

	word := "run"
	if count > 1 {
		word = "runs"
	}
	return fmt.Sprintf("Permanently deleted %d %s (older than %d days)", count, word, olderThanDays)
}

// Package ops implements the operations shared by the CLI, the MCP server,
// and the preview UI.
package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/aec/internal/db"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/run"
)

// Pagination limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// record stores r with a fresh ID and timestamp and returns the ID.
func record(ctx context.Context, database *sql.DB, r *run.Run) (string, error) {
	id, err := generateULID()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	r.ID = id
	r.CreatedAt = time.Now().Unix()
	if err := db.InsertRun(ctx, database, r); err != nil {
		return "", err
	}
	return id, nil
}

// errorCode extracts the code of an AecError, or INTERNAL for anything else.
func errorCode(err error) string {
	if aErr, ok := err.(*errors.AecError); ok {
		return string(aErr.Code)
	}
	return string(errors.ErrInternal)
}

// cleanOptionalString trims s and returns nil when nothing is left.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

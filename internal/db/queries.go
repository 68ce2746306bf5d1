package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/run"
)

// wrapErr maps context errors to CANCELLED and everything else to INTERNAL.
func wrapErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return errors.NewCancelled(op)
	}
	return errors.NewInternal(err)
}

// InsertRun stores a run.
func InsertRun(ctx context.Context, db *sql.DB, r *run.Run) error {
	var activeJSON sql.NullString
	if len(r.ActiveModules) > 0 {
		data, err := json.Marshal(r.ActiveModules)
		if err != nil {
			return errors.NewInternal(err)
		}
		activeJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO runs (
			id, kind, lang, input_text, output_text, active_json,
			compile_id, error_code, output_chars, tokens_estimate, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		r.ID, string(r.Kind), toNullString(&r.Lang), r.InputText, toNullString(&r.OutputText), activeJSON,
		toNullString(r.CompileID), toNullString(r.ErrorCode), r.OutputChars, r.TokensEstimate, r.CreatedAt,
	)
	if err != nil {
		return wrapErr(ctx, "insert run", err)
	}
	return nil
}

const runColumns = `id, kind, lang, input_text, output_text, active_json,
	compile_id, error_code, output_chars, tokens_estimate, created_at`

// GetRun retrieves a run by its ULID.
func GetRun(ctx context.Context, db *sql.DB, id string) (*run.Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("run", id)
	}
	if err != nil {
		return nil, wrapErr(ctx, "get run", err)
	}
	return r, nil
}

// ListRuns returns summaries newest first, optionally filtered by kind,
// plus the total count matching the filter.
func ListRuns(ctx context.Context, db *sql.DB, kind run.Kind, limit, offset int) ([]run.Summary, int, error) {
	total, err := CountRuns(ctx, db, kind)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapErr(ctx, "list runs", err)
	}
	defer rows.Close()

	var summaries []run.Summary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, wrapErr(ctx, "list runs", err)
		}
		summaries = append(summaries, r.ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr(ctx, "list runs", err)
	}

	return summaries, total, nil
}

// CountRuns returns the number of runs, optionally filtered by kind.
func CountRuns(ctx context.Context, db *sql.DB, kind run.Kind) (int, error) {
	query := `SELECT COUNT(*) FROM runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, wrapErr(ctx, "count runs", err)
	}
	return n, nil
}

// DeleteRunsBefore permanently deletes runs created before cutoff (Unix
// seconds) and returns how many were removed.
func DeleteRunsBefore(ctx context.Context, db *sql.DB, cutoff int64) (int, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, wrapErr(ctx, "delete runs", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a Run.
func scanRun(row scanner) (*run.Run, error) {
	var (
		r          run.Run
		kind       string
		lang       sql.NullString
		outputText sql.NullString
		activeJSON sql.NullString
		compileID  sql.NullString
		errorCode  sql.NullString
	)

	err := row.Scan(
		&r.ID, &kind, &lang, &r.InputText, &outputText, &activeJSON,
		&compileID, &errorCode, &r.OutputChars, &r.TokensEstimate, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = run.Kind(kind)
	r.Lang = lang.String
	r.OutputText = outputText.String
	r.CompileID = fromNullString(compileID)
	r.ErrorCode = fromNullString(errorCode)

	if activeJSON.Valid && activeJSON.String != "" {
		if err := json.Unmarshal([]byte(activeJSON.String), &r.ActiveModules); err != nil {
			return nil, err
		}
	}

	return &r, nil
}

// toNullString converts a *string to sql.NullString. Empty strings are NULL.
func toNullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

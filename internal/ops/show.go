package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/aec/internal/db"
	"github.com/hpungsan/aec/internal/decoder"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/run"
)

// ShowOutput is a full journaled run.
type ShowOutput struct {
	run.Summary
	InputText  string `json:"input_text"`
	OutputText string `json:"output_text,omitempty"`

	// Decoded is the parsed output of a decode run.
	Decoded *decoder.Result `json:"decoded,omitempty"`
}

// Show retrieves one run by ID.
func Show(ctx context.Context, database *sql.DB, id string) (*ShowOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	r, err := db.GetRun(ctx, database, id)
	if err != nil {
		return nil, err
	}

	out := &ShowOutput{
		Summary:    r.ToSummary(),
		InputText:  r.InputText,
		OutputText: r.OutputText,
	}

	if r.Kind == run.KindDecode && r.OutputText != "" {
		var res decoder.Result
		if err := json.Unmarshal([]byte(r.OutputText), &res); err != nil {
			return nil, errors.NewInternal(err)
		}
		res.Raw = r.InputText
		out.Decoded = &res
		out.OutputText = ""
	}

	return out, nil
}

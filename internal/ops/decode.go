package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/aec/internal/compiler"
	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/db"
	"github.com/hpungsan/aec/internal/decoder"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/run"
)

// DecodeInput contains parameters for the Decode operation.
type DecodeInput struct {
	Text      string  // required: the agent's raw reply
	CompileID *string // optional: compile run this reply answers
	NoRecord  bool
}

// DecodeOutput contains the result of the Decode operation.
type DecodeOutput struct {
	RunID     string `json:"run_id,omitempty"`
	CompileID string `json:"compile_id,omitempty"`
	*decoder.Result
}

// Decode decodes input.Text and journals the run.
// Decoding itself never fails; errors come from validation or the journal.
func Decode(ctx context.Context, database *sql.DB, cfg *config.Config, input DecodeInput) (*DecodeOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("decode")
	}

	compileID := cleanOptionalString(input.CompileID)
	if compileID != nil {
		if database == nil {
			return nil, errors.NewInvalidRequest("compile_id requires the run journal")
		}
		linked, err := db.GetRun(ctx, database, *compileID)
		if err != nil {
			return nil, err
		}
		if linked.Kind != run.KindCompile {
			return nil, errors.NewInvalidRequest("compile_id must name a compile run, got " + string(linked.Kind))
		}
	}

	res := decoder.Decode(input.Text)
	out := &DecodeOutput{Result: res}
	if compileID != nil {
		out.CompileID = *compileID
	}

	if database == nil || input.NoRecord || !cfg.ShouldRecordRuns() {
		return out, nil
	}

	// The journal stores the decoded artifacts; the reply is already in input_text.
	stored := *res
	stored.Raw = ""
	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	id, err := record(ctx, database, &run.Run{
		Kind:           run.KindDecode,
		InputText:      input.Text,
		OutputText:     string(data),
		CompileID:      compileID,
		OutputChars:    compiler.CountChars(string(data)),
		TokensEstimate: compiler.EstimateTokens(string(data)),
	})
	if err != nil {
		return nil, err
	}
	out.RunID = id
	return out, nil
}

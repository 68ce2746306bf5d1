package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/aec/internal/compiler"
	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/plugin"
	"github.com/hpungsan/aec/internal/run"
)

// CompileInput contains parameters for the Compile operation.
type CompileInput struct {
	Source   string // required
	Lang     string // optional, defaults to cfg.Lang
	NoRecord bool   // skip the run journal for this call
}

// CompileOutput contains the result of the Compile operation.
type CompileOutput struct {
	RunID string `json:"run_id,omitempty"`
	*compiler.CompiledContext
}

// Compile compiles input.Source against reg and journals the run.
//
// Failed compiles are journaled too, with their error code, before the error
// is returned. database may be nil, which disables journaling.
func Compile(ctx context.Context, database *sql.DB, reg *plugin.Registry, cfg *config.Config, input CompileInput) (*CompileOutput, error) {
	if strings.TrimSpace(input.Source) == "" {
		return nil, errors.NewInvalidRequest("source is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("compile")
	}

	langName := input.Lang
	if langName == "" {
		langName = cfg.Lang
	}
	lang, err := plugin.ParseLang(langName)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	c := compiler.New(reg, compiler.Options{
		Lang:             lang,
		ReservedKeywords: cfg.ReservedKeywords,
	})
	compiled, compileErr := c.Compile(input.Source)

	out := &CompileOutput{CompiledContext: compiled}

	if database == nil || input.NoRecord || !cfg.ShouldRecordRuns() {
		if compileErr != nil {
			return nil, compileErr
		}
		return out, nil
	}

	r := &run.Run{
		Kind:      run.KindCompile,
		Lang:      string(lang),
		InputText: input.Source,
	}
	if compileErr != nil {
		code := errorCode(compileErr)
		r.ErrorCode = &code
	} else {
		r.OutputText = compiled.Prompt
		r.ActiveModules = compiled.ActiveModules
		r.OutputChars = compiled.Chars
		r.TokensEstimate = compiled.TokensEstimate
	}

	id, err := record(ctx, database, r)
	if compileErr != nil {
		return nil, compileErr
	}
	if err != nil {
		return nil, err
	}
	out.RunID = id
	return out, nil
}

package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/ops"
	"github.com/hpungsan/aec/internal/plugin"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	reg    *plugin.Registry
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance. A nil logger discards output.
func NewHandlers(db *sql.DB, reg *plugin.Registry, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{db: db, reg: reg, cfg: cfg, logger: logger.Named("mcp")}
}

// CompileRequest represents the arguments for aec_compile.
type CompileRequest struct {
	Source   string `json:"source"`
	Lang     string `json:"lang,omitempty"`
	NoRecord bool   `json:"no_record,omitempty"`
}

// DecodeRequest represents the arguments for aec_decode.
type DecodeRequest struct {
	Text      string  `json:"text"`
	CompileID *string `json:"compile_id,omitempty"`
	NoRecord  bool    `json:"no_record,omitempty"`
}

// PluginsRequest represents the arguments for aec_plugins.
type PluginsRequest struct {
	Lang string `json:"lang,omitempty"`
}

// HistoryRequest represents the arguments for aec_history.
type HistoryRequest struct {
	Kind   string `json:"kind,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ShowRequest represents the arguments for aec_show.
type ShowRequest struct {
	ID string `json:"id"`
}

// HandleCompile handles the aec_compile tool call.
func (h *Handlers) HandleCompile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CompileRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Compile(ctx, h.db, h.reg, h.cfg, ops.CompileInput{
		Source:   input.Source,
		Lang:     input.Lang,
		NoRecord: input.NoRecord,
	})
	if err != nil {
		h.logger.Debug("compile failed", zap.Error(err))
		return errorResult(err), nil
	}

	h.logger.Debug("compiled",
		zap.String("run_id", result.RunID),
		zap.Strings("active", result.ActiveModules),
		zap.Int("tokens_estimate", result.TokensEstimate),
	)
	return successResult(result)
}

// HandleDecode handles the aec_decode tool call.
func (h *Handlers) HandleDecode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DecodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Decode(ctx, h.db, h.cfg, ops.DecodeInput{
		Text:      input.Text,
		CompileID: input.CompileID,
		NoRecord:  input.NoRecord,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePlugins handles the aec_plugins tool call.
func (h *Handlers) HandlePlugins(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PluginsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Plugins(h.reg, ops.PluginsInput{Lang: input.Lang})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the aec_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.History(ctx, h.db, ops.HistoryInput{
		Kind:   input.Kind,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleShow handles the aec_show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Show(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var aErr *errors.AecError
	if stderrors.As(err, &aErr) {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		if aErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

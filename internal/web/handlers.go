package web

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/errors"
	"github.com/hpungsan/aec/internal/ops"
	"github.com/hpungsan/aec/internal/plugin"
	"github.com/hpungsan/aec/internal/run"
)

// maxCompileBody bounds POST /compile request bodies.
const maxCompileBody = 1 << 20

// Handlers contains HTTP route handlers for the preview UI.
type Handlers struct {
	db       *sql.DB
	reg      *plugin.Registry
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

// HandleRuns handles GET /runs: the run history.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	input := ops.HistoryInput{
		Kind:   kind,
		Limit:  parseIntParam(r, "limit", ops.DefaultHistoryLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.History(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "runs", RunsPageData{
		PageData: PageData{
			Title:   "Runs",
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Kind:       kind,
	})
}

// HandleRun handles GET /runs/{id}: one run with its prompt or decoded reply.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("run ID is required"))
		return
	}

	result, err := ops.Show(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data := RunPageData{
		PageData: PageData{
			Title:   string(result.Kind) + " " + result.ID,
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Run: result,
	}
	if result.Kind == run.KindCompile && result.OutputText != "" {
		data.Rendered = renderMarkdown(result.OutputText)
	}
	if result.Decoded != nil && result.Decoded.Message != "" {
		data.Message = renderMarkdown(result.Decoded.Message)
	}

	h.renderer.renderPage(w, "run", data)
}

// HandlePlugins handles GET /plugins: the loaded registry.
func (h *Handlers) HandlePlugins(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Plugins(h.reg, ops.PluginsInput{Lang: r.URL.Query().Get("lang")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "plugins", PluginsPageData{
		PageData: PageData{
			Title:   "Plugins",
			Version: h.renderer.version,
			Nav:     "plugins",
		},
		Plugins: result.Items,
	})
}

// compileRequest is the POST /compile body.
type compileRequest struct {
	Source   string `json:"source"`
	Lang     string `json:"lang,omitempty"`
	NoRecord bool   `json:"no_record,omitempty"`
}

// HandleCompile handles POST /compile: the JSON compile API.
func (h *Handlers) HandleCompile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCompileBody)

	var req compileRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return
	}

	result, err := ops.Compile(r.Context(), h.db, h.reg, h.cfg, ops.CompileInput{
		Source:   req.Source,
		Lang:     req.Lang,
		NoRecord: req.NoRecord,
	})
	if err != nil {
		aErr := toAecError(err)
		if aErr.Code == errors.ErrInternal {
			h.logger.Error("compile failed", zap.Error(err))
		}
		writeJSONError(w, aErr)
		return
	}

	h.logger.Debug("compiled",
		zap.String("run_id", result.RunID),
		zap.Int("chars", result.Chars),
	)
	renderJSON(w, http.StatusOK, result)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

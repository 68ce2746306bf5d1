package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hpungsan/aec/internal/catalog"
	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/db"
	"github.com/hpungsan/aec/internal/ops"
)

func setupTest(t *testing.T) (*Handlers, http.Handler) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	reg, err := catalog.Registry(nil, nil)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	h, err := newHandlers(database, reg, cfg, zap.NewNop(), "test")
	require.NoError(t, err)

	srv, err := NewServer(database, reg, cfg, zap.NewNop(), "test", "127.0.0.1", 0)
	require.NoError(t, err)
	return h, srv.Handler
}

func seedCompile(t *testing.T, h *Handlers, source string) string {
	t.Helper()
	out, err := ops.Compile(context.Background(), h.db, h.reg, h.cfg, ops.CompileInput{Source: source})
	require.NoError(t, err)
	return out.RunID
}

func get(t *testing.T, handler http.Handler, path string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRootRedirects(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/runs", rec.Header().Get("Location"))
}

func TestSecurityHeaders(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/runs", "")
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestHandleRuns(t *testing.T) {
	h, handler := setupTest(t)

	rec := get(t, handler, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No runs recorded yet.")

	id := seedCompile(t, h, "RUN GEN_CODE(x)")

	rec = get(t, handler, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), id)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = get(t, handler, "/runs?kind=decode", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var out ops.HistoryOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 0, out.Pagination.Total)
}

func TestHandleRuns_BadKind(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/runs?kind=export", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown run kind")
}

func TestHandleRun_Compile(t *testing.T) {
	h, handler := setupTest(t)
	id := seedCompile(t, h, "RUN GEN_CODE(x)")

	rec := get(t, handler, "/runs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<h2>Prompt</h2>")
	require.Contains(t, body, "Module: SYS_CODE")
}

func TestHandleRun_Decode(t *testing.T) {
	h, handler := setupTest(t)
	reply := `<THOUGHT>think first</THOUGHT><CODE lang="python">print("x")</CODE><MSG>**done**</MSG>`
	out, err := ops.Decode(context.Background(), h.db, h.cfg, ops.DecodeInput{Text: reply})
	require.NoError(t, err)

	rec := get(t, handler, "/runs/"+out.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "think first")
	require.Contains(t, body, "artifact_1.py")
	require.Contains(t, body, "<strong>done</strong>")
	require.NotContains(t, body, "<h2>Prompt</h2>")
}

func TestHandleRun_NotFound(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/runs/01MISSING", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Error 404")

	rec = get(t, handler, "/runs/01MISSING", "application/json")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "NOT_FOUND", payload["error"]["code"])
}

func TestHandlePlugins(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/plugins", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, catalog.KernelName)
	require.Contains(t, body, "GEN_PY(")
}

func postCompile(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/compile", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleCompile(t *testing.T) {
	_, handler := setupTest(t)

	rec := postCompile(t, handler, `{"source":"RUN GEN_NODE('api')"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out["run_id"])
	require.Contains(t, out["prompt"], "GEN_NODE")
}

func TestHandleCompile_Errors(t *testing.T) {
	_, handler := setupTest(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown command", `{"source":"RUN GEN_NOD(x)"}`, http.StatusUnprocessableEntity, "UNKNOWN_COMMAND"},
		{"empty source", `{"source":""}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad json", `{"source":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown field", `{"src":"RUN THINK(x)"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad lang", `{"source":"RUN THINK(x)","lang":"fr"}`, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postCompile(t, handler, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			var payload map[string]map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			require.Equal(t, tt.wantCode, payload["error"]["code"])
		})
	}
}

func TestHandleCompile_MethodNotAllowed(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/compile", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	_, handler := setupTest(t)

	rec := get(t, handler, "/static/style.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Header().Get("Content-Type"), "text/css"))
}

func TestFormatChars(t *testing.T) {
	tests := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
		-12345:  "-12,345",
	}
	for n, want := range tests {
		require.Equal(t, want, formatChars(n), "formatChars(%d)", n)
	}
}

func TestDeref(t *testing.T) {
	s := "abc"
	var nilStr *string
	require.Equal(t, "abc", deref(&s))
	require.Equal(t, "", deref(nilStr))
	require.Equal(t, "", deref(nil))
	require.Equal(t, 5, deref(5))
}

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	html := string(renderMarkdown("# Title\n\n<script>alert(1)</script>"))
	require.Contains(t, html, "<h1>Title</h1>")
	require.NotContains(t, html, "<script>")
}

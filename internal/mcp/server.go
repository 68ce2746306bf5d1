// Package mcp exposes compile, decode and the run journal as MCP tools.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/aec/internal/config"
	"github.com/hpungsan/aec/internal/plugin"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"aec_compile": {
		def:     compileToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCompile },
	},
	"aec_decode": {
		def:     decodeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDecode },
	},
	"aec_plugins": {
		def:     pluginsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlugins },
	},
	"aec_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"aec_show": {
		def:     showToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleShow },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the AEC tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, reg *plugin.Registry, cfg *config.Config, logger *zap.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"aec",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, reg, cfg, logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			logger.Debug("tool disabled", zap.String("tool", name))
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, reg *plugin.Registry, cfg *config.Config, logger *zap.Logger, version string) error {
	s := NewServer(db, reg, cfg, logger, version)
	logger.Info("mcp server starting", zap.Int("plugins", reg.Len()))
	return server.ServeStdio(s)
}

package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/mythic/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"table_create": {
		def:     tableCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTableCreate },
	},
	"table_list": {
		def:     tableListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTableList },
	},
	"row_add": {
		def:     rowAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRowAdd },
	},
	"row_update": {
		def:     rowUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRowUpdate },
	},
	"row_delete": {
		def:     rowDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRowDelete },
	},
	"rows_replace": {
		def:     rowsReplaceToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRowsReplace },
	},
	"turn_begin": {
		def:     turnBeginToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTurnBegin },
	},
	"actions_apply": {
		def:     actionsApplyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleActionsApply },
	},
	"turn_list": {
		def:     turnListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTurnList },
	},
	"lorebook_sync": {
		def:     lorebookSyncToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLorebookSync },
	},
	"db_export": {
		def:     dbExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"db_import": {
		def:     dbImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"session_list": {
		def:     sessionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList },
	},
	"session_delete": {
		def:     sessionDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionDelete },
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

// NewServer creates a new MCP server with engine tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"mythic",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

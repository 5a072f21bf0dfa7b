package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Tools with structured arguments (table configs, row
// tuples, action batches) derive their input schema from the request
// struct; flat tools declare properties inline.

var tableCreateToolDef = mcp.NewTool(
	"table_create",
	mcp.WithDescription("Create a structured data table from a table config (columns, export settings, lorebook link, AI rules)"),
	mcp.WithInputSchema[TableCreateRequest](),
)

var tableListToolDef = mcp.NewTool(
	"table_list",
	mcp.WithDescription("List the session's tables with column definitions and row counts"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
)

var rowAddToolDef = mcp.NewTool(
	"row_add",
	mcp.WithDescription("Append a row to a table, optionally seeding cell values keyed by column id"),
	mcp.WithInputSchema[RowAddRequest](),
)

var rowUpdateToolDef = mcp.NewTool(
	"row_update",
	mcp.WithDescription("Update a single cell addressed by table id, row id, and column id"),
	mcp.WithInputSchema[RowUpdateRequest](),
)

var rowDeleteToolDef = mcp.NewTool(
	"row_delete",
	mcp.WithDescription("Delete a row by table id and row id"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
	mcp.WithString("table_id",
		mcp.Required(),
		mcp.Description("Table id"),
	),
	mcp.WithString("row_id",
		mcp.Required(),
		mcp.Description("Row id"),
	),
)

var rowsReplaceToolDef = mcp.NewTool(
	"rows_replace",
	mcp.WithDescription("Replace a table's entire row list with positional tuples ([rowId, v1, v2, ...])"),
	mcp.WithInputSchema[RowsReplaceRequest](),
)

var turnBeginToolDef = mcp.NewTool(
	"turn_begin",
	mcp.WithDescription("Open a generation turn: capture the row-identity snapshot and render the prompt block"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
)

var actionsApplyToolDef = mcp.NewTool(
	"actions_apply",
	mcp.WithDescription("Apply an AI action batch (INSERT/UPDATE/DELETE/NOTIFY) against the snapshot of an open turn; provide either raw model output or a structured actions array"),
	mcp.WithInputSchema[ActionsApplyRequest](),
)

var turnListToolDef = mcp.NewTool(
	"turn_list",
	mcp.WithDescription("List the session's turn audit trail, newest first"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of turns to return (default 50)"),
		mcp.Min(0),
	),
)

var lorebookSyncToolDef = mcp.NewTool(
	"lorebook_sync",
	mcp.WithDescription("Recompute generated lorebook entries from lorebook-linked tables and replace the engine-sourced entry set"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
)

var dbExportToolDef = mcp.NewTool(
	"db_export",
	mcp.WithDescription("Export the session database as a portable full-save JSON file"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
	mcp.WithString("path",
		mcp.Description("Destination .json path; must be directly in an allowed directory (defaults to a timestamped file in the exports directory)"),
	),
)

var dbImportToolDef = mcp.NewTool(
	"db_import",
	mcp.WithDescription("Import a full-save JSON file (legacy wrapped formats accepted) into the session database"),
	mcp.WithString("session",
		mcp.Description("Session id (defaults to the configured default session)"),
	),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Source .json path; must be directly in an allowed directory"),
	),
	mcp.WithString("mode",
		mcp.Description("merge (default) appends rows into matching tables; overwrite replaces the database"),
		mcp.Enum("merge", "overwrite"),
	),
)

var sessionListToolDef = mcp.NewTool(
	"session_list",
	mcp.WithDescription("List every session with persisted state"),
)

var sessionDeleteToolDef = mcp.NewTool(
	"session_delete",
	mcp.WithDescription("Delete a session and everything persisted under it (tables, turns, generated lorebook entries)"),
	mcp.WithString("session",
		mcp.Required(),
		mcp.Description("Session id"),
	),
)

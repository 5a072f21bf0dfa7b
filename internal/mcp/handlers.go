package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/mythic/internal/action"
	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/ops"
	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/transfer"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// TableCreateRequest represents the arguments for table_create.
type TableCreateRequest struct {
	Session string             `json:"session,omitempty"`
	Config  schema.TableConfig `json:"config"`
}

// TableListRequest represents the arguments for table_list.
type TableListRequest struct {
	Session string `json:"session,omitempty"`
}

// RowAddRequest represents the arguments for row_add.
type RowAddRequest struct {
	Session string         `json:"session,omitempty"`
	TableID string         `json:"table_id"`
	Data    map[string]any `json:"data,omitempty"`
}

// RowUpdateRequest represents the arguments for row_update.
type RowUpdateRequest struct {
	Session  string `json:"session,omitempty"`
	TableID  string `json:"table_id"`
	RowID    string `json:"row_id"`
	ColumnID string `json:"column_id"`
	Value    any    `json:"value"`
}

// RowDeleteRequest represents the arguments for row_delete.
type RowDeleteRequest struct {
	Session string `json:"session,omitempty"`
	TableID string `json:"table_id"`
	RowID   string `json:"row_id"`
}

// RowsReplaceRequest represents the arguments for rows_replace.
type RowsReplaceRequest struct {
	Session string  `json:"session,omitempty"`
	TableID string  `json:"table_id"`
	Rows    [][]any `json:"rows"`
}

// TurnBeginRequest represents the arguments for turn_begin.
type TurnBeginRequest struct {
	Session string `json:"session,omitempty"`
}

// ActionsApplyRequest represents the arguments for actions_apply.
type ActionsApplyRequest struct {
	Session string          `json:"session,omitempty"`
	TurnID  string          `json:"turn_id,omitempty"`
	Raw     string          `json:"raw,omitempty"`
	Actions []action.Action `json:"actions,omitempty"`
}

// TurnListRequest represents the arguments for turn_list.
type TurnListRequest struct {
	Session string `json:"session,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// LorebookSyncRequest represents the arguments for lorebook_sync.
type LorebookSyncRequest struct {
	Session string `json:"session,omitempty"`
}

// ExportRequest represents the arguments for db_export.
type ExportRequest struct {
	Session string `json:"session,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for db_import.
type ImportRequest struct {
	Session string `json:"session,omitempty"`
	Path    string `json:"path"`
	Mode    string `json:"mode,omitempty"`
}

// SessionDeleteRequest represents the arguments for session_delete.
type SessionDeleteRequest struct {
	Session string `json:"session"`
}

// Handler implementations

// HandleTableCreate handles the table_create tool call.
func (h *Handlers) HandleTableCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TableCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.TableCreate(h.db, h.cfg, ops.TableCreateInput{
		Session: input.Session,
		Config:  input.Config,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTableList handles the table_list tool call.
func (h *Handlers) HandleTableList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TableListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.TableList(h.db, h.cfg, ops.TableListInput{Session: input.Session})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRowAdd handles the row_add tool call.
func (h *Handlers) HandleRowAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RowAdd(h.db, h.cfg, ops.RowAddInput{
		Session: input.Session,
		TableID: input.TableID,
		Data:    input.Data,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRowUpdate handles the row_update tool call.
func (h *Handlers) HandleRowUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CellUpdate(h.db, h.cfg, ops.CellUpdateInput{
		Session:  input.Session,
		TableID:  input.TableID,
		RowID:    input.RowID,
		ColumnID: input.ColumnID,
		Value:    input.Value,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRowDelete handles the row_delete tool call.
func (h *Handlers) HandleRowDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RowDelete(h.db, h.cfg, ops.RowDeleteInput{
		Session: input.Session,
		TableID: input.TableID,
		RowID:   input.RowID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRowsReplace handles the rows_replace tool call.
func (h *Handlers) HandleRowsReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowsReplaceRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RowsReplace(h.db, h.cfg, ops.RowsReplaceInput{
		Session: input.Session,
		TableID: input.TableID,
		Rows:    input.Rows,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTurnBegin handles the turn_begin tool call.
func (h *Handlers) HandleTurnBegin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TurnBeginRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.TurnBegin(h.db, h.cfg, ops.TurnBeginInput{Session: input.Session})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleActionsApply handles the actions_apply tool call.
func (h *Handlers) HandleActionsApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ActionsApplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ActionsApply(h.db, h.cfg, ops.ActionsApplyInput{
		Session: input.Session,
		TurnID:  input.TurnID,
		Raw:     input.Raw,
		Actions: input.Actions,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTurnList handles the turn_list tool call.
func (h *Handlers) HandleTurnList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TurnListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.TurnList(h.db, h.cfg, ops.TurnListInput{
		Session: input.Session,
		Limit:   input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLorebookSync handles the lorebook_sync tool call.
func (h *Handlers) HandleLorebookSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LorebookSyncRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.LorebookSync(h.db, h.cfg, ops.LorebookSyncInput{Session: input.Session})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the db_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.db, h.cfg, ops.ExportInput{
		Session: input.Session,
		Path:    input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the db_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.db, h.cfg, ops.ImportInput{
		Session: input.Session,
		Path:    input.Path,
		Mode:    transfer.Mode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.SessionList(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionDelete handles the session_delete tool call.
func (h *Handlers) HandleSessionDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SessionDelete(h.db, h.cfg, ops.SessionDeleteInput{Session: input.Session})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if engineErr, ok := err.(*errors.EngineError); ok {
		errorObj := map[string]any{
			"code":    engineErr.Code,
			"message": engineErr.Message,
			"status":  engineErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if engineErr.Code != errors.ErrInternal && engineErr.Details != nil {
			errorObj["details"] = engineErr.Details
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

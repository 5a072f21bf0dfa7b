package web

import (
	"database/sql"
	"net/http"
	"net/url"
	"strings"

	"github.com/hpungsan/mythic/internal/action"
	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/ops"
	"github.com/hpungsan/mythic/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// session resolves the session from the query string, falling back to
// the configured default.
func (h *Handlers) session(r *http.Request) string {
	return ops.Session(r.URL.Query().Get("session"), h.cfg)
}

// HandleTables handles GET /tables — list the session's tables.
func (h *Handlers) HandleTables(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	result, err := ops.TableList(h.db, h.cfg, ops.TableListInput{Session: session})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "tables", TablesPageData{
		PageData: PageData{
			Title:   "Tables",
			Version: h.renderer.version,
			Session: session,
			Nav:     "tables",
		},
		Tables:      result.Tables,
		LastUpdated: result.LastUpdated,
	})
}

// HandleTableDetail handles GET /tables/{id} — one table with its rows.
func (h *Handlers) HandleTableDetail(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	tableID := r.PathValue("id")

	result, err := ops.TableGet(h.db, h.cfg, ops.TableGetInput{Session: session, TableID: tableID})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rows := make([]RowView, len(result.Rows))
	for i, tuple := range result.Rows {
		view := RowView{Index: i}
		if len(tuple) > 0 {
			view.ID, _ = tuple[0].(string)
		}
		view.Cells = make([]string, len(result.Config.Columns))
		for j := range result.Config.Columns {
			if j+1 < len(tuple) {
				view.Cells[j] = store.FormatValue(tuple[j+1])
			}
		}
		rows[i] = view
	}

	h.renderer.renderPage(w, r, "table", TableDetailPageData{
		PageData: PageData{
			Title:   result.Config.Name,
			Version: h.renderer.version,
			Session: session,
			Nav:     "tables",
		},
		Table: ops.TableSummary{
			Index:          result.Index,
			ID:             result.Config.ID,
			Name:           result.Config.Name,
			Columns:        result.Config.Columns,
			RowCount:       len(rows),
			ExportEnabled:  result.Config.Export.Enabled,
			LorebookLinked: result.Config.LorebookLink != nil && result.Config.LorebookLink.Enabled,
		},
		Description: renderMarkdown(result.Config.Description),
		Rows:        rows,
	})
}

// HandleTurns handles GET /turns — the session's turn audit trail.
func (h *Handlers) HandleTurns(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	result, err := ops.TurnList(h.db, h.cfg, ops.TurnListInput{Session: session})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	turns := make([]TurnView, len(result.Turns))
	for i, t := range result.Turns {
		view := TurnView{
			ID:            t.ID,
			Status:        t.Status,
			CreatedAt:     t.CreatedAt,
			Notifications: t.Notifications,
		}
		for _, entry := range t.Logs {
			switch entry.Outcome {
			case action.OutcomeApplied:
				view.Applied++
			case action.OutcomeSkipped:
				view.Skipped++
			}
		}
		turns[i] = view
	}

	h.renderer.renderPage(w, r, "turns", TurnsPageData{
		PageData: PageData{
			Title:   "Turns",
			Version: h.renderer.version,
			Session: session,
			Nav:     "turns",
		},
		Turns: turns,
	})
}

// HandleLorebook handles GET /lorebook — stored generated entries.
func (h *Handlers) HandleLorebook(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	result, err := ops.LorebookList(h.db, h.cfg, ops.LorebookListInput{Session: session})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	entries := make([]EntryView, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = EntryView{
			Entry:    e,
			Keys:     strings.Join(e.Keys, ", "),
			Rendered: renderMarkdown(e.Content),
		}
	}

	h.renderer.renderPage(w, r, "lorebook", LorebookPageData{
		PageData: PageData{
			Title:   "Lorebook",
			Version: h.renderer.version,
			Session: session,
			Nav:     "lorebook",
		},
		Entries: entries,
	})
}

// HandleLorebookSync handles POST /lorebook/sync — recompute entries.
func (h *Handlers) HandleLorebookSync(w http.ResponseWriter, r *http.Request) {
	session := ops.Session(r.FormValue("session"), h.cfg)

	if _, err := ops.LorebookSync(h.db, h.cfg, ops.LorebookSyncInput{Session: session}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/lorebook?session="+url.QueryEscape(session), http.StatusSeeOther)
}

// HandleSessions handles GET /sessions — list stored sessions.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	result, err := ops.SessionList(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	sessions := make([]SessionView, len(result.Sessions))
	for i, s := range result.Sessions {
		sessions[i] = SessionView{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
	}

	h.renderer.renderPage(w, r, "sessions", SessionsPageData{
		PageData: PageData{
			Title:   "Sessions",
			Version: h.renderer.version,
			Nav:     "sessions",
		},
		Sessions: sessions,
	})
}

// HandleSessionDelete handles DELETE /sessions/{id}.
func (h *Handlers) HandleSessionDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.SessionDelete(h.db, h.cfg, ops.SessionDeleteInput{Session: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

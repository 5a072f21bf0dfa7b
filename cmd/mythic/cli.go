package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/mythic/internal/config"
	"github.com/hpungsan/mythic/internal/errors"
	"github.com/hpungsan/mythic/internal/ops"
	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/transfer"
	"github.com/hpungsan/mythic/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "mythic",
		Usage:   "Structured RPG state for AI roleplay",
		Version: Version,
		Commands: []*cli.Command{
			tablesCmd(db, cfg),
			tableCreateCmd(db, cfg),
			tableShowCmd(db, cfg),
			rowAddCmd(db, cfg),
			rowUpdateCmd(db, cfg),
			rowDeleteCmd(db, cfg),
			rowsReplaceCmd(db, cfg),
			turnBeginCmd(db, cfg),
			applyCmd(db, cfg),
			turnsCmd(db, cfg),
			syncCmd(db, cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			sessionsCmd(db),
			sessionDeleteCmd(db, cfg),
			uiCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// sessionFlag is the shared --session flag.
func sessionFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to configured default)"}
}

// tablesCmd creates the tables command.
func tablesCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "List the session's tables",
		Flags: []cli.Flag{sessionFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.TableList(db, cfg, ops.TableListInput{Session: c.String("session")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// tableCreateCmd creates the table-create command.
func tableCreateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "table-create",
		Usage: "Create a table from a config document (reads JSON from stdin)",
		Flags: []cli.Flag{sessionFlag()},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("table config must be piped via stdin"))
			}
			raw, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			var tableCfg schema.TableConfig
			if err := json.Unmarshal([]byte(raw), &tableCfg); err != nil {
				return outputError(errors.NewParse("invalid table config: " + err.Error()))
			}

			output, err := ops.TableCreate(db, cfg, ops.TableCreateInput{
				Session: c.String("session"),
				Config:  tableCfg,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// tableShowCmd creates the table-show command.
func tableShowCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "table-show",
		Usage:     "Show one table's config and rows",
		ArgsUsage: "<table-id>",
		Flags:     []cli.Flag{sessionFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.TableGet(db, cfg, ops.TableGetInput{
				Session: c.String("session"),
				TableID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rowAddCmd creates the row-add command.
func rowAddCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "row-add",
		Usage: "Append a row to a table (optionally reads cell data JSON from stdin)",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Required: true, Usage: "Table id"},
		},
		Action: func(c *cli.Context) error {
			input := ops.RowAddInput{
				Session: c.String("session"),
				TableID: c.String("table"),
			}

			if stdinHasData() {
				raw, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if raw != "" {
					if err := json.Unmarshal([]byte(raw), &input.Data); err != nil {
						return outputError(errors.NewParse("invalid cell data: " + err.Error()))
					}
				}
			}

			output, err := ops.RowAdd(db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rowUpdateCmd creates the row-update command.
func rowUpdateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "row-update",
		Usage: "Update one cell by table, row, and column id",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Required: true, Usage: "Table id"},
			&cli.StringFlag{Name: "row", Aliases: []string{"r"}, Required: true, Usage: "Row id"},
			&cli.StringFlag{Name: "column", Aliases: []string{"c"}, Required: true, Usage: "Column id"},
			&cli.StringFlag{Name: "value", Usage: "New value (parsed as JSON, falling back to raw string)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.CellUpdate(db, cfg, ops.CellUpdateInput{
				Session:  c.String("session"),
				TableID:  c.String("table"),
				RowID:    c.String("row"),
				ColumnID: c.String("column"),
				Value:    parseValue(c.String("value")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rowDeleteCmd creates the row-delete command.
func rowDeleteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "row-delete",
		Usage: "Delete a row by table and row id",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Required: true, Usage: "Table id"},
			&cli.StringFlag{Name: "row", Aliases: []string{"r"}, Required: true, Usage: "Row id"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.RowDelete(db, cfg, ops.RowDeleteInput{
				Session: c.String("session"),
				TableID: c.String("table"),
				RowID:   c.String("row"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rowsReplaceCmd creates the rows-replace command.
func rowsReplaceCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "rows-replace",
		Usage: "Replace a table's rows with positional tuples (reads JSON array from stdin)",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Required: true, Usage: "Table id"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("row tuples must be piped via stdin"))
			}
			raw, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			var rows [][]any
			if err := json.Unmarshal([]byte(raw), &rows); err != nil {
				return outputError(errors.NewParse("invalid row tuples: " + err.Error()))
			}

			output, err := ops.RowsReplace(db, cfg, ops.RowsReplaceInput{
				Session: c.String("session"),
				TableID: c.String("table"),
				Rows:    rows,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// turnBeginCmd creates the turn-begin command.
func turnBeginCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "turn-begin",
		Usage: "Open a generation turn: capture the snapshot and render the prompt block",
		Flags: []cli.Flag{sessionFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.TurnBegin(db, cfg, ops.TurnBeginInput{Session: c.String("session")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// applyCmd creates the apply command.
func applyCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply an AI action batch (reads raw model output from stdin)",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "turn", Usage: "Turn id (defaults to the latest open turn)"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("action batch must be piped via stdin"))
			}
			raw, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.ActionsApply(db, cfg, ops.ActionsApplyInput{
				Session: c.String("session"),
				TurnID:  c.String("turn"),
				Raw:     raw,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// turnsCmd creates the turns command.
func turnsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "turns",
		Usage: "List the session's turn audit trail",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum turns to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.TurnList(db, cfg, ops.TurnListInput{
				Session: c.String("session"),
				Limit:   c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Recompute generated lorebook entries from lorebook-linked tables",
		Flags: []cli.Flag{sessionFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.LorebookSync(db, cfg, ops.LorebookSyncInput{Session: c.String("session")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the session database as a full-save JSON file",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.mythic/exports/<session>-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(db, cfg, ops.ExportInput{
				Session: c.String("session"),
				Path:    c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a full-save JSON file into the session database",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "merge", Usage: "Import mode: merge|overwrite"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(db, cfg, ops.ImportInput{
				Session: c.String("session"),
				Path:    c.String("path"),
				Mode:    transfer.Mode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List stored sessions",
		Action: func(c *cli.Context) error {
			output, err := ops.SessionList(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// sessionDeleteCmd creates the session-delete command.
func sessionDeleteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "session-delete",
		Usage:     "Delete a session and everything persisted under it",
		ArgsUsage: "<session-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("session id is required"))
			}
			output, err := ops.SessionDelete(db, cfg, ops.SessionDeleteInput{Session: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Start the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8321, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if engineErr, ok := err.(*errors.EngineError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", engineErr.Code, engineErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseValue interprets a CLI value flag: JSON when it parses, raw
// string otherwise, so numbers and booleans survive the trip.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/mythic/internal/schema"
	"github.com/hpungsan/mythic/internal/store"
)

// RenderPromptBlock renders every export-enabled table as a markdown
// block for the prompt builder. Tables with strategy "never" contribute
// nothing even when enabled; row indexes are printed so the AI can
// address rows positionally against the snapshot taken alongside.
func RenderPromptBlock(data *store.Database, rowLimit int) string {
	var b strings.Builder

	if rules := strings.TrimSpace(data.GlobalRules); rules != "" {
		b.WriteString(rules)
		b.WriteString("\n\n")
	}

	for i, t := range data.Tables {
		if !t.Config.Export.Enabled || t.Config.Export.Strategy == schema.StrategyNever {
			continue
		}
		fmt.Fprintf(&b, "### [%d] %s\n", i, t.Config.Name)
		if desc := strings.TrimSpace(t.Config.Description); desc != "" {
			b.WriteString(desc)
			b.WriteString("\n")
		}
		writeTableMarkdown(&b, t, rowLimit)
		if t.Config.AIRules != nil {
			writeRules(&b, t.Config.AIRules)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeTableMarkdown(b *strings.Builder, t *store.Table, rowLimit int) {
	b.WriteString("| # |")
	for _, col := range t.Config.Columns {
		label := col.Label
		if label == "" {
			label = col.ID
		}
		b.WriteString(" " + escapeCell(label) + " |")
	}
	b.WriteString("\n| --- |")
	for range t.Config.Columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for i, row := range t.ActiveRows() {
		if i >= rowLimit {
			fmt.Fprintf(b, "| … | (%d more rows omitted) |\n", len(t.ActiveRows())-rowLimit)
			break
		}
		fmt.Fprintf(b, "| %d |", i)
		for _, col := range t.Config.Columns {
			b.WriteString(" " + escapeCell(store.FormatValue(row.Cell(col))) + " |")
		}
		b.WriteString("\n")
	}
}

func writeRules(b *strings.Builder, rules *schema.AIRules) {
	for _, r := range []struct{ label, text string }{
		{"insert", rules.Insert},
		{"update", rules.Update},
		{"delete", rules.Delete},
	} {
		if text := strings.TrimSpace(r.text); text != "" {
			fmt.Fprintf(b, "- %s: %s\n", r.label, text)
		}
	}
}

// escapeCell keeps cell text from breaking the markdown table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

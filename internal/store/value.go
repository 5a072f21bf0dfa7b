package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/mythic/internal/schema"
)

// Coerce converts an untrusted value (AI action payload, import document,
// manual edit) to the column's declared type. Coercion never fails: an
// unconvertible value degrades to the column default, matching the
// tolerated-data policy for AI output.
func Coerce(t schema.ColumnType, v any) any {
	switch t {
	case schema.TypeNumber:
		return coerceNumber(v)
	case schema.TypeBoolean:
		return coerceBool(v)
	case schema.TypeList:
		return coerceList(v)
	default:
		return FormatValue(v)
	}
}

func coerceNumber(v any) float64 {
	switch tv := v.(type) {
	case float64:
		return tv
	case float32:
		return float64(tv)
	case int:
		return float64(tv)
	case int64:
		return float64(tv)
	case json.Number:
		f, err := tv.Float64()
		if err != nil {
			return 0
		}
		return f
	case bool:
		if tv {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(tv)))
		return err == nil && b
	case float64:
		return tv != 0
	case int:
		return tv != 0
	default:
		return false
	}
}

func coerceList(v any) []any {
	switch tv := v.(type) {
	case []any:
		// Copy so the stored cell never aliases a caller-owned slice.
		out := make([]any, len(tv))
		copy(out, tv)
		return out
	case []string:
		out := make([]any, len(tv))
		for i, s := range tv {
			out[i] = s
		}
		return out
	case nil:
		return []any{}
	default:
		return []any{v}
	}
}

// FormatValue renders any cell value as display text. Whole numbers drop
// the decimal point, lists join with commas.
func FormatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		if tv == float64(int64(tv)) {
			return strconv.FormatInt(int64(tv), 10)
		}
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case []any:
		parts := make([]string, len(tv))
		for i, e := range tv {
			parts[i] = FormatValue(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", tv)
	}
}

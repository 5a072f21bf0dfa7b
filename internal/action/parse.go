package action

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Parse extracts an action batch from free-form model output. Handles
// markdown code fences, prose around the JSON array, and attempts
// per-object repair on malformed JSON before giving up.
func Parse(raw string) ([]Action, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return []Action{}, nil
	}

	// Try parsing as a plain array
	if actions, ok := tryParseArray(cleaned); ok {
		return actions, nil
	}

	// Try a single bare action object
	var one Action
	if err := json.Unmarshal([]byte(cleaned), &one); err == nil && IsValidType(string(one.Type)) {
		return []Action{normalize(one)}, nil
	}

	// The model may wrap the array in prose; take the outermost brackets
	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start >= 0 && end > start {
		if actions, ok := tryParseArray(cleaned[start : end+1]); ok {
			return actions, nil
		}
	}

	// Last resort: regex repair of individual action objects
	actions := repairActions(cleaned)
	if len(actions) == 0 {
		return nil, fmt.Errorf("action: no parseable actions in model output")
	}
	return actions, nil
}

// stripCodeFence removes markdown code block wrappers (```json ... ```).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// tryParseArray unmarshals an action array, filtering unknown types.
func tryParseArray(s string) ([]Action, bool) {
	var parsed []Action
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, false
	}
	out := make([]Action, 0, len(parsed))
	for _, a := range parsed {
		if !IsValidType(string(a.Type)) {
			continue
		}
		out = append(out, normalize(a))
	}
	return out, true
}

// normalize uppercases the type so downstream switches match.
func normalize(a Action) Action {
	a.Type = Type(strings.ToUpper(strings.TrimSpace(string(a.Type))))
	return a
}

// actionPattern matches a complete action object with at most one level
// of nesting (the data payload).
var actionPattern = regexp.MustCompile(
	`\{(?:[^{}]|\{[^{}]*\})*"type"\s*:\s*"(?i:INSERT|UPDATE|DELETE|NOTIFY)"(?:[^{}]|\{[^{}]*\})*\}`,
)

// repairActions recovers individual action objects from malformed JSON.
func repairActions(raw string) []Action {
	matches := actionPattern.FindAllString(raw, -1)
	actions := make([]Action, 0, len(matches))
	for _, m := range matches {
		var a Action
		if err := json.Unmarshal([]byte(m), &a); err != nil {
			continue
		}
		if !IsValidType(string(a.Type)) {
			continue
		}
		actions = append(actions, normalize(a))
	}
	return actions
}

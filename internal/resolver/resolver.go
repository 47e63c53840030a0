// Package resolver maps visible question numbers (and template placeholder keys)
// to question UUIDs by walking mock JSON whose shape varies between mock types.
package resolver

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxDepth bounds the recursive walk; the root is depth 0.
const MaxDepth = 10

var (
	numberFields      = []string{"question_number", "number", "questionNumber", "question_no", "questionNo"}
	placeholderFields = []string{"placeholder_key", "placeholderKey", "placeholder", "blank_key", "key"}
	idFields          = []string{"id", "pk", "uuid", "question_id", "questionId", "question_uuid", "questionUuid"}

	digitsRe = regexp.MustCompile(`\d+`)
)

// KeyMap maps a question key to the question UUID. Numeric keys are stored as decimal strings.
type KeyMap map[string]string

// Lookup returns the UUID mapped to a question number.
func (k KeyMap) Lookup(number int) (string, bool) {
	id, ok := k[strconv.Itoa(number)]
	return id, ok
}

// set stores id under key unless the key is already taken.
func (k KeyMap) set(key, id string) bool {
	if key == "" || id == "" {
		return false
	}
	if _, exists := k[key]; exists {
		return false
	}
	k[key] = id
	return true
}

func (k KeyMap) setNumber(number int, id string) bool {
	if number <= 0 {
		return false
	}
	return k.set(strconv.Itoa(number), id)
}

// Decode turns raw mock JSON into the generic tree the resolver walks.
func Decode(raw []byte) (any, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return root, nil
}

// Resolve runs the generic walk, then the question_groups fallback, then the
// question ranges and templates. Numbers found on individual items win.
func Resolve(root any) KeyMap {
	keys := BuildKeyMap(root)
	ResolveGroups(root, keys)
	ResolveSpans(root, keys)
	return keys
}

// BuildKeyMap walks root pre-order and records every number/placeholder → id pair it can find.
// The first mapping recorded for a key wins.
func BuildKeyMap(root any) KeyMap {
	keys := make(KeyMap)
	walk(root, 0, keys)
	return keys
}

func walk(node any, depth int, keys KeyMap) {
	if depth > MaxDepth {
		return
	}

	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walk(item, depth+1, keys)
		}
	case map[string]any:
		visitObject(v, keys)
		for _, name := range sortedKeys(v) {
			switch child := v[name].(type) {
			case map[string]any, []any:
				walk(child, depth+1, keys)
			}
		}
	}
}

func visitObject(obj map[string]any, keys KeyMap) {
	id := extractID(obj)
	if id == "" {
		return
	}

	if number, ok := extractNumber(obj); ok {
		keys.setNumber(number, id)
		return
	}

	placeholder, ok := firstString(obj, placeholderFields)
	if !ok {
		return
	}
	if digits := digitsRe.FindString(placeholder); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			keys.setNumber(n, id)
		}
	}
	keys.set(placeholder, id)
}

func extractNumber(obj map[string]any) (int, bool) {
	for _, field := range numberFields {
		if n, ok := asInt(obj[field]); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func extractID(obj map[string]any) string {
	if id, ok := firstScalar(obj, idFields); ok {
		return id
	}
	if nested, ok := obj["question"].(map[string]any); ok {
		if id, ok := firstScalar(nested, idFields); ok {
			return id
		}
	}
	return ""
}

func firstScalar(obj map[string]any, fields []string) (string, bool) {
	for _, field := range fields {
		if s, ok := asString(obj[field]); ok {
			return s, true
		}
	}
	return "", false
}

func firstString(obj map[string]any, fields []string) (string, bool) {
	for _, field := range fields {
		if s, ok := obj[field].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func sortedKeys(obj map[string]any) []string {
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

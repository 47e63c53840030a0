package resolver

import (
	"strings"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/template"
)

// MaxSpan caps how many numbers a single question_number_start..end range may claim.
const MaxSpan = 1000

var templateFields = []string{"template", "html", "text"}

// ResolveSpans maps the numbers a question claims as a whole: its
// question_number_start..end range and the answer slots of its template.
// Children are visited before their parent so a question wins over its section.
func ResolveSpans(root any, keys KeyMap) {
	walkSpans(root, 0, keys)
}

func walkSpans(node any, depth int, keys KeyMap) {
	if depth > MaxDepth {
		return
	}

	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkSpans(item, depth+1, keys)
		}
	case map[string]any:
		for _, name := range sortedKeys(v) {
			switch child := v[name].(type) {
			case map[string]any, []any:
				walkSpans(child, depth+1, keys)
			}
		}
		visitSpan(v, keys)
	}
}

func visitSpan(obj map[string]any, keys KeyMap) {
	id := extractID(obj)
	if id == "" {
		return
	}

	if start, ok := asInt(obj["question_number_start"]); ok && start > 0 {
		end, ok := asInt(obj["question_number_end"])
		if !ok || end < start {
			end = start
		}
		if end-start >= MaxSpan {
			end = start + MaxSpan - 1
		}
		for n := start; n <= end; n++ {
			keys.setNumber(n, id)
		}
	}

	for _, tpl := range templates(obj) {
		for _, n := range template.ExtractQuestionNumbers(tpl) {
			keys.setNumber(n, id)
		}
		for _, key := range template.Placeholders(tpl) {
			keys.set(key, id)
		}
	}
}

// templates returns the markup strings held by obj or its content object.
func templates(obj map[string]any) []string {
	var out []string
	collect := func(m map[string]any) {
		for _, field := range templateFields {
			if s, ok := m[field].(string); ok && strings.Contains(s, "<") {
				out = append(out, s)
			}
		}
	}

	collect(obj)
	switch content := obj["content"].(type) {
	case string:
		if strings.Contains(content, "<") {
			out = append(out, content)
		}
	case map[string]any:
		collect(content)
	}
	return out
}

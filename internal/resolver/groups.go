package resolver

import (
	"strconv"
	"strings"
)

var containerFields = []string{"sections", "passages", "parts"}

// ResolveGroups walks question_groups[].questions of the root and of every
// section, passage and part, filling keys the generic walk left unmapped.
func ResolveGroups(root any, keys KeyMap) {
	obj, ok := root.(map[string]any)
	if !ok {
		return
	}

	resolveContainer(obj, keys)
	for _, field := range containerFields {
		items, ok := obj[field].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			if container, ok := item.(map[string]any); ok {
				resolveContainer(container, keys)
			}
		}
	}
}

func resolveContainer(container map[string]any, keys KeyMap) {
	groups, ok := container["question_groups"].([]any)
	if !ok {
		return
	}

	position := 0
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}

		switch questions := group["questions"].(type) {
		case []any:
			start := groupStart(group)
			for i, q := range questions {
				position++
				item, ok := q.(map[string]any)
				if !ok {
					continue
				}
				id := extractID(item)
				if id == "" {
					continue
				}
				number, found := extractNumber(item)
				switch {
				case found:
				case start > 0:
					number = start + i
				default:
					number = position
				}
				keys.setNumber(number, id)
			}
		case map[string]any:
			for _, key := range sortedKeys(questions) {
				position++
				item, ok := questions[key].(map[string]any)
				if !ok {
					if id, ok := asString(questions[key]); ok {
						setKey(keys, key, id)
					}
					continue
				}
				id := extractID(item)
				if id == "" {
					continue
				}
				setKey(keys, key, id)
			}
		}
	}
}

// setKey maps an object-form key, which is usually the question number itself.
func setKey(keys KeyMap, key, id string) {
	key = strings.TrimSpace(key)
	if n, err := strconv.Atoi(key); err == nil {
		keys.setNumber(n, id)
		return
	}
	keys.set(key, id)
}

func groupStart(group map[string]any) int {
	for _, field := range []string{"question_number_start", "start"} {
		if n, ok := asInt(group[field]); ok && n > 0 {
			return n
		}
	}
	return 0
}

// Package template extracts question numbers and placeholder keys from the
// pseudo-HTML question templates produced by the mock editor.
package template

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Tags that render an answerable slot.
var questionTags = map[string]struct{}{
	"question-input":       {},
	"choice-group":         {},
	"matching-answer-slot": {},
	"boolean-answer":       {},
	"drag-drop-slot":       {},
}

// Attribute names carrying the question number, highest priority first.
var numberAttrs = []string{"data-question-number", "question-number", "data-number", "number"}

var keyAttrs = []string{"data-key", "key"}

// slot is one recognized tag occurrence.
type slot struct {
	number int
	key    string
}

func scan(tpl string) []slot {
	if strings.TrimSpace(tpl) == "" {
		return nil
	}

	var slots []slot
	z := html.NewTokenizer(strings.NewReader(tpl))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer failure; keep what was collected
			return slots
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if _, ok := questionTags[strings.ToLower(tok.Data)]; !ok {
				continue
			}
			slots = append(slots, slot{
				number: numberFromAttrs(tok.Attr),
				key:    attrValue(tok.Attr, keyAttrs),
			})
		}
	}
}

func numberFromAttrs(attrs []html.Attribute) int {
	for _, name := range numberAttrs {
		for _, a := range attrs {
			if strings.ToLower(a.Key) != name {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(a.Val))
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

func attrValue(attrs []html.Attribute, names []string) string {
	for _, name := range names {
		for _, a := range attrs {
			if strings.ToLower(a.Key) == name {
				if v := strings.TrimSpace(a.Val); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// ExtractQuestionNumbers returns the sorted, deduplicated question numbers
// referenced by the recognized tags of tpl. Malformed input yields an empty slice.
func ExtractQuestionNumbers(tpl string) []int {
	seen := make(map[int]struct{})
	numbers := make([]int, 0)
	for _, s := range scan(tpl) {
		if s.number <= 0 {
			continue
		}
		if _, dup := seen[s.number]; dup {
			continue
		}
		seen[s.number] = struct{}{}
		numbers = append(numbers, s.number)
	}
	sort.Ints(numbers)
	return numbers
}

// Placeholders returns the placeholder keys of recognized tags in document order.
func Placeholders(tpl string) []string {
	keys := make([]string, 0)
	for _, s := range scan(tpl) {
		if s.key != "" {
			keys = append(keys, s.key)
		}
	}
	return keys
}

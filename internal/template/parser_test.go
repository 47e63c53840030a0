package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuestionNumbers(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected []int
	}{
		{
			name:     "mixed tag types are sorted",
			template: `<p>Fill <question-input data-number="3"></question-input> and <choice-group number="1"/> then <matching-answer-slot data-question-number="2"/></p>`,
			expected: []int{1, 2, 3},
		},
		{
			name:     "duplicates collapse",
			template: `<question-input number="4"/><drag-drop-slot number="4"/><boolean-answer number="5"/>`,
			expected: []int{4, 5},
		},
		{
			name:     "attribute priority",
			template: `<question-input data-question-number="7" number="9"/>`,
			expected: []int{7},
		},
		{
			name:     "falls through invalid attribute",
			template: `<question-input data-question-number="abc" number="9"/>`,
			expected: []int{9},
		},
		{
			name:     "unknown tags ignored",
			template: `<span number="1"></span><question-input number="2"/>`,
			expected: []int{2},
		},
		{
			name:     "upper case tags",
			template: `<QUESTION-INPUT NUMBER="6"></QUESTION-INPUT>`,
			expected: []int{6},
		},
		{
			name:     "malformed markup",
			template: `<question-input number="8" <choice-group number=`,
			expected: []int{},
		},
		{
			name:     "empty",
			template: "",
			expected: []int{},
		},
		{
			name:     "non positive numbers skipped",
			template: `<question-input number="0"/><question-input number="-2"/>`,
			expected: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractQuestionNumbers(tt.template)
			assert.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractQuestionNumbers_Idempotent(t *testing.T) {
	tpl := `<choice-group number="3"/><question-input number="1"/><matching-answer-slot number="2"/>`
	first := ExtractQuestionNumbers(tpl)
	second := ExtractQuestionNumbers(tpl)
	assert.Equal(t, []int{1, 2, 3}, first)
	assert.Equal(t, first, second)
}

func TestPlaceholders(t *testing.T) {
	tpl := `<question-input data-key="blank_12"/><question-input number="13" key="q13"/><question-input number="14"/>`
	assert.Equal(t, []string{"blank_12", "q13"}, Placeholders(tpl))
	assert.Empty(t, Placeholders("<p>nothing</p>"))
}

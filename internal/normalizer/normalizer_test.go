package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

func decodeTask(t *testing.T, raw string) *models.Task {
	t.Helper()
	var task models.Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))
	return &task
}

func TestNormalize_QuizAssignsSequentialNumbers(t *testing.T) {
	task := decodeTask(t, `{
		"id": 12,
		"task_type": "QUIZ",
		"custom_content": {"questions": [
			{"text": "a"}, {"text": "b"}, {"text": "c"}
		]}
	}`)

	got := Normalize(task)

	require.Len(t, got.Sections, 1)
	assert.Equal(t, 3, got.TotalQuestions)
	assert.Len(t, got.Sections[0].Questions, 3)
	for i, q := range got.AllQuestions {
		assert.Equal(t, i+1, q.Number)
		assert.Equal(t, "quiz", q.SectionID)
	}
	assert.Equal(t, "q-0", got.AllQuestions[0].ID)
}

func TestNormalize_QuizKeepsExplicitNumbers(t *testing.T) {
	task := decodeTask(t, `{"task_type": "QUIZ", "custom_content": {"questions": [
		{"id": "x", "question_number": "4"}, {"id": "y"}
	]}}`)

	got := Normalize(task)
	assert.Equal(t, 4, got.AllQuestions[0].Number)
	assert.Equal(t, 2, got.AllQuestions[1].Number)
	assert.Equal(t, "x", got.AllQuestions[0].ID)
}

func TestNormalize_EmptyOrMalformedMocks(t *testing.T) {
	cases := map[string]string{
		"missing": `{"task_type": "EXAM_MOCK"}`,
		"null":    `{"task_type": "EXAM_MOCK", "mocks": null}`,
		"object":  `{"task_type": "EXAM_MOCK", "mocks": {"id": 1}}`,
		"string":  `{"task_type": "PRACTICE_MOCK", "mocks": "oops"}`,
		"empty":   `{"task_type": "CUSTOM_MOCK", "mocks": []}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got := Normalize(decodeTask(t, raw))
			assert.Empty(t, got.Sections)
			assert.NotNil(t, got.Sections)
			assert.Empty(t, got.AllQuestions)
			assert.NotNil(t, got.AllQuestions)
			assert.Equal(t, 0, got.TotalQuestions)
		})
	}

	assert.Equal(t, 0, Normalize(nil).TotalQuestions)
}

func TestNormalize_TraversalOrderAndSynthesizedIDs(t *testing.T) {
	task := decodeTask(t, `{
		"task_type": "EXAM_MOCK",
		"mocks": [
			{"id": "m1", "mock_type": "LISTENING", "sections": [
				{"id": "s1", "part_number": 1, "questions": [
					{"id": "u1", "question_number_start": 1, "question_number_end": 5, "question_type": "GAP_FILL"},
					{"question_number_start": 6}
				]},
				{"part_number": 2, "questions": [
					{"id": "u3", "question_number_start": 7}
				]}
			]},
			{"id": "m2", "mock_type": "READING", "sections": [
				{"id": 44, "questions": [{"id": 9001}]}
			]}
		]
	}`)

	got := Normalize(task)

	require.Equal(t, 4, got.TotalQuestions)
	ids := make([]string, 0, len(got.AllQuestions))
	for _, q := range got.AllQuestions {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"u1", "q-1", "u3", "9001"}, ids)

	require.Len(t, got.Sections, 3)
	assert.Equal(t, "s1", got.Sections[0].ID)
	assert.Equal(t, "section-1", got.Sections[1].ID)
	assert.Equal(t, "44", got.Sections[2].ID)
	assert.Equal(t, models.MockTypeReading, got.Sections[2].MockType)

	assert.Equal(t, 5, got.AllQuestions[0].NumberEnd)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got.AllQuestions[0].Numbers())
	// numbering continues after the previous question when absent
	assert.Equal(t, 8, got.AllQuestions[3].Number)
}

func TestNormalize_WritingMock(t *testing.T) {
	task := decodeTask(t, `{
		"task_type": "EXAM_MOCK",
		"mocks": [{"id": "w", "mock_type": "WRITING", "tasks": [
			{"id": "t1", "task_number": 1, "prompt": "Describe the chart"},
			{"id": "t2", "task_number": 2}
		]}]
	}`)

	got := Normalize(task)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "writing-0", got.Sections[0].ID)
	assert.Equal(t, 2, got.TotalQuestions)
	assert.Equal(t, "t2", got.AllQuestions[1].ID)
	assert.Equal(t, 2, got.AllQuestions[1].Number)
}

func TestNormalize_ClampsQuestionSpan(t *testing.T) {
	task := decodeTask(t, `{
		"task_type": "EXAM_MOCK",
		"mocks": [{"id": "m1", "mock_type": "READING", "sections": [
			{"id": "s1", "questions": [
				{"id": "u1", "question_number_start": 1, "question_number_end": 1000000000000},
				{"question_number_start": 2}
			]}
		]}]
	}`)

	got := Normalize(task)

	require.Len(t, got.AllQuestions, 2)
	assert.Equal(t, models.MaxQuestionSpan, got.AllQuestions[0].NumberEnd)
	assert.Len(t, got.AllQuestions[0].Numbers(), models.MaxQuestionSpan)
	assert.False(t, got.AllQuestions[0].Generated)
	assert.True(t, got.AllQuestions[1].Generated)
}

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	root, err := Decode([]byte(raw))
	require.NoError(t, err)
	return root
}

func TestBuildKeyMap_FieldVariants(t *testing.T) {
	root := mustDecode(t, `{
		"id": "mock-1",
		"sections": [{
			"id": "s1",
			"questions": [
				{"id": "uuid-1", "question_number": 1},
				{"pk": 22, "number": "2"},
				{"uuid": "uuid-3", "questionNumber": 3},
				{"question_id": "uuid-4", "question_no": 4},
				{"question": {"id": "uuid-5"}, "questionNo": 5},
				{"id": "uuid-6", "placeholder_key": "blank_6"}
			]
		}]
	}`)

	keys := BuildKeyMap(root)

	for number, want := range map[int]string{1: "uuid-1", 2: "22", 3: "uuid-3", 4: "uuid-4", 5: "uuid-5", 6: "uuid-6"} {
		got, ok := keys.Lookup(number)
		assert.True(t, ok, "number %d", number)
		assert.Equal(t, want, got, "number %d", number)
	}
	assert.Equal(t, "uuid-6", keys["blank_6"])
	_, ok := keys.Lookup(7)
	assert.False(t, ok)
}

func TestBuildKeyMap_FirstWriterWins(t *testing.T) {
	root := mustDecode(t, `{
		"questions": [
			{"id": "canonical", "question_number": 1, "content": {"items": [{"id": "nested", "number": 1}]}},
			{"id": "later", "question_number": 1}
		]
	}`)

	keys := BuildKeyMap(root)
	got, ok := keys.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "canonical", got)
}

func TestBuildKeyMap_DepthLimit(t *testing.T) {
	// each level is one object plus one array; the leaf sits well below depth 10
	raw := `{"id": "top", "a": `
	closing := ""
	for i := 0; i < 12; i++ {
		raw += `[{"a": `
		closing += `}]`
	}
	raw += `{"id": "deep", "question_number": 99}` + closing + `}`

	keys := BuildKeyMap(mustDecode(t, raw))
	_, ok := keys.Lookup(99)
	assert.False(t, ok)

	shallow := mustDecode(t, `{"a": [{"b": [{"id": "near", "question_number": 3}]}]}`)
	got, ok := BuildKeyMap(shallow).Lookup(3)
	assert.True(t, ok)
	assert.Equal(t, "near", got)
}

func TestBuildKeyMap_NonObjectRoots(t *testing.T) {
	assert.Empty(t, BuildKeyMap(nil))
	assert.Empty(t, BuildKeyMap("text"))
	assert.Empty(t, BuildKeyMap([]any{1.0, "x"}))
}

func TestResolve_ObjectKeyedGroupsMatchArrayGroups(t *testing.T) {
	objectForm := mustDecode(t, `{
		"sections": [{
			"question_groups": [{
				"questions": {"5": {"id": "five"}, "6": {"id": "six"}}
			}]
		}]
	}`)
	arrayForm := mustDecode(t, `{
		"sections": [{
			"question_groups": [{
				"question_number_start": 5,
				"questions": [{"id": "five"}, {"id": "six"}]
			}]
		}]
	}`)

	objectKeys := Resolve(objectForm)
	arrayKeys := Resolve(arrayForm)

	for _, keys := range []KeyMap{objectKeys, arrayKeys} {
		five, ok := keys.Lookup(5)
		assert.True(t, ok)
		assert.Equal(t, "five", five)
		six, ok := keys.Lookup(6)
		assert.True(t, ok)
		assert.Equal(t, "six", six)
	}
}

func TestResolveGroups_PassagesAndPositionFallback(t *testing.T) {
	root := mustDecode(t, `{
		"passages": [{
			"question_groups": [
				{"questions": [{"id": "p1"}, {"id": "p2"}]},
				{"questions": [{"id": "p3", "number": 10}, {"id": "p4"}]}
			]
		}]
	}`)

	keys := make(KeyMap)
	ResolveGroups(root, keys)

	assert.Equal(t, "p1", keys["1"])
	assert.Equal(t, "p2", keys["2"])
	assert.Equal(t, "p3", keys["10"])
	assert.Equal(t, "p4", keys["4"])
}

func TestResolveGroups_DoesNotOverride(t *testing.T) {
	root := mustDecode(t, `{
		"parts": [{"question_groups": [{"questions": {"1": {"id": "from-group"}}}]}]
	}`)
	keys := KeyMap{"1": "from-walk"}
	ResolveGroups(root, keys)
	assert.Equal(t, "from-walk", keys["1"])
}

func TestResolve_QuestionRangesAndTemplates(t *testing.T) {
	root := mustDecode(t, `{
		"id": 5,
		"sections": [{
			"id": "s1",
			"question_number_start": 1,
			"question_number_end": 9,
			"questions": [
				{"id": "uuid-1", "question_number_start": 1},
				{"id": "uuid-2", "question_number_start": 2, "question_number_end": 3,
				 "content": {"template": "<p><question-input data-question-number=\"2\"></question-input> and <question-input data-question-number=\"3\" data-key=\"blank_3\"></question-input></p>"}},
				{"id": "uuid-4", "content": {"template": "<choice-group number=\"4\"/><choice-group number=\"5\"/>"}}
			]
		}]
	}`)

	keys := Resolve(root)

	for number, want := range map[int]string{1: "uuid-1", 2: "uuid-2", 3: "uuid-2", 4: "uuid-4", 5: "uuid-4", 6: "s1"} {
		got, ok := keys.Lookup(number)
		assert.True(t, ok, "number %d", number)
		assert.Equal(t, want, got, "number %d", number)
	}
	assert.Equal(t, "uuid-2", keys["blank_3"])
}

func TestResolve_ItemNumbersWinOverRanges(t *testing.T) {
	root := mustDecode(t, `{"questions": [
		{"id": "qa", "question_number_start": 1, "question_number_end": 2,
		 "content": {"items": [{"question_number": 1, "id": "uuid-1"}, {"question_number": 2, "id": "uuid-2"}]}}
	]}`)

	keys := Resolve(root)
	assert.Equal(t, "uuid-1", keys["1"])
	assert.Equal(t, "uuid-2", keys["2"])
}

func TestResolveSpans_RangeIsCapped(t *testing.T) {
	root := mustDecode(t, `{"questions": [{"id": "huge", "question_number_start": 1, "question_number_end": 1000000000000}]}`)

	keys := make(KeyMap)
	ResolveSpans(root, keys)

	assert.Len(t, keys, MaxSpan)
	_, ok := keys.Lookup(MaxSpan + 1)
	assert.False(t, ok)
}

package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExamEvent(t *testing.T) {
	event := NewExamEvent(EventDraftSaved, DraftSavedEvent{SessionID: "s1", Answered: 3})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventDraftSaved, event.Type)
	assert.Equal(t, "exam-session-gateway", event.Source)
	assert.False(t, event.Timestamp.IsZero())
}

func TestNewMessageMetadata(t *testing.T) {
	event := NewExamEvent(EventSubmissionSent, SubmissionSentEvent{SessionID: "s1", Unresolved: []int{4}})

	msg, err := newMessage(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, "submission.submitted", msg.Metadata.Get("event_type"))
	assert.Equal(t, "1.0", msg.Metadata.Get("version"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "s1", data["session_id"])
	assert.Equal(t, []any{float64(4)}, data["unresolved"])
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(nil)
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, NewExamEvent(EventSessionStarted, nil)))
	require.NoError(t, pub.Publish(ctx, NewExamEvent(EventDraftSaved, nil)))
	require.NoError(t, pub.Publish(ctx, NewExamEvent(EventDraftSaved, nil)))

	assert.Len(t, pub.GetPublishedEvents(), 3)
	assert.Len(t, pub.EventsOfType(EventDraftSaved), 2)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())
	assert.NoError(t, pub.Close())
}

func TestDecodeEvent(t *testing.T) {
	event := NewExamEvent(EventAnswersUnresolved, AnswersUnresolvedEvent{SessionID: "s1", Numbers: []int{3, 9}, Partial: true})
	msg, err := newMessage(context.Background(), event)
	require.NoError(t, err)

	decoded, data, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, EventAnswersUnresolved, decoded.Type)
	assert.Nil(t, decoded.Data)

	var payload AnswersUnresolvedEvent
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, []int{3, 9}, payload.Numbers)
	assert.True(t, payload.Partial)
}

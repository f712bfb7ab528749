package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chatbot-go/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishTurn(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisherWithWriter(w)

	ev := model.TurnEvent{
		SessionID: "s-1",
		Username:  "alice",
		Turns: []model.ChatTurn{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: "hello"},
		},
		At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.PublishTurn(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "s-1", string(w.msgs[0].Key))

	var got model.TurnEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ev, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishTurnWriterError(t *testing.T) {
	p := NewPublisherWithWriter(&recordingWriter{err: errors.New("broker down")})
	err := p.PublishTurn(context.Background(), model.TurnEvent{SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

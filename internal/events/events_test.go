package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/config"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}
	userID := uuid.Must(uuid.NewV4())

	err := p.Publish(context.Background(), OrderKey(12), OrderCompleted{
		Type:        TypeOrderCompleted,
		OrderID:     12,
		UserID:      userID,
		CourseIDs:   []int64{1, 2},
		TotalAmount: decimal.RequireFromString("30.00"),
		Currency:    "USD",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-12", string(w.msgs[0].Key))

	var got OrderCompleted
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, int64(12), got.OrderID)
	assert.Equal(t, userID, got.UserID)
	assert.True(t, decimal.RequireFromString("30").Equal(got.TotalAmount))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unavailable")}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), "k", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, w.err)
}

func TestNewPublisher_WithoutBrokersIsNop(t *testing.T) {
	p := NewPublisher(config.KafkaConfig{Topic: "x"})
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), "k", 1))
}

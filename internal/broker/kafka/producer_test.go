package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/BearBump/SyncBox/internal/broker/messages"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	last []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.last = append([]kafka.Message{}, msgs...)
	return w.err
}

func TestProducer_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := newProducerWithWriter(fw)

	require.NoError(t, p.Publish(context.Background(), "t", []byte("k"), []byte("v")))
	require.Len(t, fw.last, 1)
	require.Equal(t, "t", fw.last[0].Topic)
	require.Equal(t, []byte("k"), fw.last[0].Key)
	require.Equal(t, []byte("v"), fw.last[0].Value)
}

func TestProducer_PublishOrderNotification(t *testing.T) {
	fw := &fakeWriter{}
	p := newProducerWithWriter(fw)

	ev := messages.OrderNotification{
		Kind:        messages.NotificationStatusChanged,
		OrderNumber: "ORD-1001",
		OldStatus:   "New",
		NewStatus:   "In Transit CHN-IR",
	}
	require.NoError(t, p.PublishOrderNotification(context.Background(), ev))
	require.Len(t, fw.last, 1)
	require.Equal(t, TopicOrderNotifications, fw.last[0].Topic)
	require.Equal(t, []byte("ORD-1001"), fw.last[0].Key)

	var got messages.OrderNotification
	require.NoError(t, json.Unmarshal(fw.last[0].Value, &got))
	require.Equal(t, ev.Kind, got.Kind)
	require.Equal(t, ev.NewStatus, got.NewStatus)
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:0"})
	require.NotNil(t, p)
}

package kafka

import (
	"context"
	"encoding/json"

	"github.com/BearBump/SyncBox/internal/broker/messages"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// TopicOrderNotifications — топик событий по заказам для бота.
const TopicOrderNotifications = "order.notifications"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Producer struct {
	w messageWriter
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func newProducerWithWriter(w messageWriter) *Producer {
	return &Producer{w: w}
}

func (p *Producer) Close() error {
	if w, ok := p.w.(*kafka.Writer); ok {
		return w.Close()
	}
	return nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// PublishOrderNotification шлёт событие с ключом по номеру заказа,
// чтобы события одного заказа попадали в одну партицию.
func (p *Producer) PublishOrderNotification(ctx context.Context, ev messages.OrderNotification) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	return p.Publish(ctx, TopicOrderNotifications, []byte(ev.OrderNumber), value)
}

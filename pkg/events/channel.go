package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ChannelPublisher publishes events as watermill messages on one topic.
type ChannelPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewChannelPublisher(p message.Publisher, topic string) *ChannelPublisher {
	return &ChannelPublisher{publisher: p, topic: topic}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", event.EventType())
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.EventType(), p.topic, err)
	}
	return nil
}

package events

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelBus is the in-process transport used when NATS is not reachable.
// Delivery is at most once: a failing handler is logged and the message acked.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
}

func NewChannelBus() *ChannelBus {
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
	}
}

func (b *ChannelBus) Publish(ctx context.Context, event Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return b.pubSub.Publish(Subject(event.EventType()), msg)
}

func (b *ChannelBus) Subscribe(ctx context.Context, eventType string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(ctx, Subject(eventType))
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			evt, err := Decode(msg.Payload)
			if err != nil {
				log.Printf("[ERROR] Dropping undecodable event on %s: %v", eventType, err)
				msg.Ack()
				continue
			}
			if err := handler(ctx, evt); err != nil {
				log.Printf("[ERROR] Handler failed for %s: %v", eventType, err)
			}
			msg.Ack()
		}
	}()

	return nil
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}

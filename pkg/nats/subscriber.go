package nats

import (
	"context"
	"fmt"
	"strings"

	"saas-billing-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subscriber consumes events through durable JetStream consumers. Each
// subscription gets its own durable named "<group>-<event type>", so a restart
// resumes where the previous process stopped.
type Subscriber struct {
	nc    *nats.Conn
	js    jetstream.JetStream
	group string
}

func NewSubscriber(url, group string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, group: group}, nil
}

func durableName(group, eventType string) string {
	return group + "-" + strings.ToLower(strings.ReplaceAll(eventType, "_", "-"))
}

func (s *Subscriber) Subscribe(ctx context.Context, eventType string, handler events.Handler) error {
	durable := durableName(s.group, eventType)
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: events.Subject(eventType),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", durable, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		evt, err := events.Decode(msg.Data())
		if err != nil {
			logf("dropping undecodable message on %s: %v", msg.Subject(), err)
			msg.Term()
			return
		}
		if evt.Type != strings.TrimPrefix(msg.Subject(), "events.") {
			logf("subject %s carries event type %s", msg.Subject(), evt.Type)
		}

		if err := handler(ctx, evt); err != nil {
			logf("handler failed for %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
	}()

	logf("subscribed to %s with durable %s", events.Subject(eventType), durable)
	return nil
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

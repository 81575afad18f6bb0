package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/kazz187/todoguild/pkg/panicerr"
)

const topic = "todoguild.events"

// Handler consumes one event. Errors are logged and the event is dropped;
// handlers are never retried.
type Handler func(ctx context.Context, ev *Event) error

// Bus fans events out to every registered handler without blocking the
// publisher.
type Bus struct {
	pubSub *gochannel.GoChannel
	router *message.Router
}

func New(logger *slog.Logger) (*Bus, error) {
	adapter := newSlogAdapter(logger)
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, adapter)
	router, err := message.NewRouter(message.RouterConfig{}, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	return &Bus{
		pubSub: pubSub,
		router: router,
	}, nil
}

// AddHandler registers h under name. Handlers must be added before Run.
func (b *Bus) AddHandler(name string, h Handler) {
	b.router.AddNoPublisherHandler(name, topic, b.pubSub, func(msg *message.Message) error {
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			slog.ErrorContext(msg.Context(), "failed to decode event", "handler", name, "error", err)
			return nil
		}
		err := panicerr.SafeContext(func(ctx context.Context) error {
			return h(ctx, &ev)
		})(msg.Context())
		if err != nil {
			slog.ErrorContext(msg.Context(), "event handler failed",
				"handler", name, "event_id", ev.ID, "event_type", ev.Type, "error", err)
		}
		return nil
	})
}

// Run delivers events to handlers until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once Run is delivering events.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubSub.Close()
}

// Publish hands ev to the bus. It does not wait for handlers.
func (b *Bus) Publish(ctx context.Context, ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set("type", string(ev.Type))
	msg.SetContext(context.WithoutCancel(ctx))
	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// PublishNew builds and publishes an event, logging rather than returning a
// failure: the mutation it describes has already been stored.
func (b *Bus) PublishNew(ctx context.Context, typ Type, taskID, actorID string, metadata map[string]string) {
	if b == nil {
		return
	}
	ev := NewEvent(typ, taskID, actorID, metadata)
	if err := b.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "event_type", typ, "task_id", taskID, "error", err)
	}
}

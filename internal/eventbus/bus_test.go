package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/pkg/storage"
)

func startBus(t *testing.T, handlers map[string]Handler) *Bus {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	bus, err := New(slog.Default())
	require.NoError(t, err)
	for name, h := range handlers {
		bus.AddHandler(name, h)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bus did not start")
	}
	return bus
}

func TestBus_FanOut(t *testing.T) {
	got1 := make(chan *Event, 1)
	got2 := make(chan *Event, 1)
	bus := startBus(t, map[string]Handler{
		"one": func(_ context.Context, ev *Event) error { got1 <- ev; return nil },
		"two": func(_ context.Context, ev *Event) error { got2 <- ev; return nil },
	})

	ev := NewEvent(TodoCompleted, "t-1", "u-1", map[string]string{"status": "completed"})
	require.NoError(t, bus.Publish(context.Background(), ev))

	for _, ch := range []chan *Event{got1, got2} {
		select {
		case received := <-ch:
			assert.Equal(t, ev.ID, received.ID)
			assert.Equal(t, TodoCompleted, received.Type)
			assert.Equal(t, "completed", received.Metadata["status"])
		case <-time.After(2 * time.Second):
			t.Fatal("event was not delivered")
		}
	}
}

func TestBus_FailingHandlerDoesNotRedeliver(t *testing.T) {
	calls := make(chan struct{}, 10)
	bus := startBus(t, map[string]Handler{
		"broken": func(context.Context, *Event) error {
			calls <- struct{}{}
			return errors.New("broken")
		},
		"panicky": func(context.Context, *Event) error {
			panic("boom")
		},
	})
	bus.PublishNew(context.Background(), TodoCreated, "t-1", "u-1", nil)

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, calls)
}

func TestPublishNew_NilBus(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() {
		bus.PublishNew(context.Background(), TodoCreated, "t-1", "u-1", nil)
	})
}

func TestArchiveHandler(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ev := NewEvent(ViewerAdded, "t-1", "owner", map[string]string{"viewer_id": "v-1"})
	require.NoError(t, ArchiveHandler(s)(ctx, ev))

	data, err := s.Read(ctx, "events/"+ev.CreatedAt.UTC().Format("2006-01-02")+"/"+ev.ID+".json")
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, "v-1", got.Metadata["viewer_id"])
}

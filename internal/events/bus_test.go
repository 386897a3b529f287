package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/events"
)

type stubStore struct {
	lastParams db.InsertDomainEventParams
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) error {
	s.lastParams = arg
	return nil
}

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
	}

	payload := map[string]any{"orderId": int64(123)}
	ctx := context.Background()
	event, err := bus.Emit(ctx, events.TopicOrderSubmitted, 123, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderSubmitted, store.lastParams.Topic)
	require.Equal(t, int64(123), store.lastParams.AggregateID)
	require.JSONEq(t, `{"orderId":123}`, string(store.lastParams.Payload))
	require.Len(t, notifier.events, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, float64(123), decoded["orderId"])
}

func TestEmitRejectsMissingTopic(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "  ", 1, nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderApproved, 1, []byte("{not json"))
	require.Error(t, err)
}

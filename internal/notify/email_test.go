package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/events"
)

func TestNotifySendsToRecipient(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail, Enabled: true}

	err := n.Notify(context.Background(), events.Event{
		Topic:   events.TopicSettlementPending,
		Payload: json.RawMessage(`{"clientEmail":"dina@example.com","code":"SWABC","balance":50000}`),
	})
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "dina@example.com", mail.Outbox[0].To)
	require.Contains(t, mail.Outbox[0].HTML, "SWABC")
	require.Contains(t, mail.Outbox[0].HTML, "50000")
}

func TestNotifySkipsWithoutRecipient(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail, Enabled: true}

	err := n.Notify(context.Background(), events.Event{
		Topic:   events.TopicOrderSubmitted,
		Payload: json.RawMessage(`{"code":"SWABC"}`),
	})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}

func TestNotifyHonorsTopicToggle(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{
		Mail:         mail,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicOrderSubmitted: false},
	}

	err := n.Notify(context.Background(), events.Event{
		Topic:   events.TopicOrderSubmitted,
		Payload: json.RawMessage(`{"clientEmail":"dina@example.com"}`),
	})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}

func TestNotifyDisabled(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail}

	err := n.Notify(context.Background(), events.Event{
		Topic:   events.TopicOrderApproved,
		Payload: json.RawMessage(`{"clientEmail":"dina@example.com"}`),
	})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}

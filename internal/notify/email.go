package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/events"
)

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event events.Event) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic), bodyFor(event.Topic, payload))
}

func extractRecipient(payload map[string]any) string {
	for _, key := range []string{"email", "recipient", "clientEmail"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicOrderSubmitted:
		return "Pesanan sewa diterima"
	case events.TopicOrderApproved:
		return "Pesanan sewa disetujui"
	case events.TopicOrderRejected:
		return "Pesanan sewa ditolak"
	case events.TopicOrderActivated:
		return "Masa sewa dimulai"
	case events.TopicOrderReturned:
		return "Pengembalian diterima"
	case events.TopicOrderCompleted:
		return "Sewa selesai"
	case events.TopicOrderCanceled:
		return "Pesanan sewa dibatalkan"
	case events.TopicSettlementPending:
		return "Tagihan pelunasan sewa"
	default:
		return fmt.Sprintf("Notifikasi %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any) string {
	summary := fmt.Sprintf("Pembaruan status sewa: %s.", topic)
	if code, ok := payload["code"].(string); ok && code != "" {
		summary += fmt.Sprintf("\nKode pesanan: %s", code)
	}
	if balance, ok := payload["balance"].(float64); ok && balance > 0 {
		summary += fmt.Sprintf("\nSisa tagihan: %.0f", balance)
	}
	if note, ok := payload["message"].(string); ok && note != "" {
		summary += "\n" + note
	}
	return summary
}

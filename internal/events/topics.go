package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderSubmitted    = "order.submitted"
	TopicOrderApproved     = "order.approved"
	TopicOrderRejected     = "order.rejected"
	TopicOrderActivated    = "order.activated"
	TopicOrderReturned     = "order.returned"
	TopicOrderCompleted    = "order.completed"
	TopicOrderCanceled     = "order.canceled"
	TopicDiscountRedeemed  = "discount.redeemed"
	TopicSettlementPending = "settlement.pending"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderSubmitted,
		TopicOrderApproved,
		TopicOrderRejected,
		TopicOrderActivated,
		TopicOrderReturned,
		TopicOrderCompleted,
		TopicOrderCanceled,
		TopicDiscountRedeemed,
		TopicSettlementPending,
	}
}

package domain

// orderTransitions lists the allowed next states per order status.
// partially_delivered may repeat: each further partial delivery keeps the order there.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusApproved,
		OrderStatusPartiallyDelivered,
		OrderStatusDelivered,
		OrderStatusRejected,
		OrderStatusCancelled,
	},
	OrderStatusApproved: {
		OrderStatusPartiallyDelivered,
		OrderStatusDelivered,
		OrderStatusRejected,
		OrderStatusCancelled,
	},
	OrderStatusPartiallyDelivered: {
		OrderStatusPartiallyDelivered,
		OrderStatusDelivered,
		OrderStatusRejected,
		OrderStatusCancelled,
	},
	OrderStatusDelivered: {
		OrderStatusCompleted,
	},
}

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusPartiallyDelivered,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// AcceptsDeliveries reports whether deliveries may still be recorded.
// A delivered order still "accepts" submissions so that over-delivery is reported as exceeding the remaining zero.
func (s OrderStatus) AcceptsDeliveries() bool {
	switch s {
	case OrderStatusRejected, OrderStatusCancelled, OrderStatusCompleted:
		return false
	}
	return true
}

// CanTransitionTo reports whether a checked-out item may move from s to next. Only active items change state.
func (s InventoryStatus) CanTransitionTo(next InventoryStatus) bool {
	return s == InventoryStatusActive && next.IsTerminal()
}

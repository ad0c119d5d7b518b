package domain

import "github.com/shopspring/decimal"

// DeliveryState is the derived delivery progress of one order. It is recomputed from the
// delivery rows on every read and never stored.
type DeliveryState struct {
	Ordered        decimal.Decimal
	TotalDelivered decimal.Decimal
	Remaining      decimal.Decimal
	IsComplete     bool
	DeliveryCount  int
}

// StatusAfterDelivery is the order status implied by a state that has at least one delivery
func (s DeliveryState) StatusAfterDelivery() OrderStatus {
	if s.IsComplete {
		return OrderStatusDelivered
	}
	return OrderStatusPartiallyDelivered
}

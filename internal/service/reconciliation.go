package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
)

// ComputeDeliveryState derives delivery progress from an order and the full set of its deliveries
func ComputeDeliveryState(order *domain.Order, deliveries []domain.OrderDelivery) domain.DeliveryState {
	total := decimal.Zero
	for _, d := range deliveries {
		total = total.Add(d.DeliveredQuantity)
	}
	remaining := order.Quantity.Sub(total)

	return domain.DeliveryState{
		Ordered:        order.Quantity,
		TotalDelivered: total,
		Remaining:      remaining,
		IsComplete:     !remaining.IsPositive(),
		DeliveryCount:  len(deliveries),
	}
}

// checkRemaining validates a candidate quantity against the remaining quantity
func checkRemaining(quantity, remaining decimal.Decimal) error {
	if quantity.GreaterThan(remaining) {
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return &ExceedsRemainingError{Requested: quantity, Remaining: remaining}
	}
	return nil
}

// countsTowardDemand reports whether an order still represents expected supply
func countsTowardDemand(status domain.OrderStatus) bool {
	return status != domain.OrderStatusRejected && status != domain.OrderStatusCancelled
}

// AggregateItemStatuses merges the orders of a purchase request and their deliveries into one status per
// material item, in order of first appearance. Rejected and cancelled orders are ignored.
func AggregateItemStatuses(orders []domain.Order, deliveries map[uuid.UUID][]domain.OrderDelivery) ([]domain.ItemDeliveryStatusDTO, domain.ItemDeliveryStatus) {
	type itemAcc struct {
		dto         domain.ItemDeliveryStatusDTO
		allComplete bool
	}

	var seen []uuid.UUID
	items := make(map[uuid.UUID]*itemAcc)

	for i := range orders {
		o := &orders[i]
		if !countsTowardDemand(o.Status) {
			continue
		}
		acc, ok := items[o.MaterialItemID]
		if !ok {
			acc = &itemAcc{
				dto: domain.ItemDeliveryStatusDTO{
					MaterialItemID: o.MaterialItemID,
					MaterialName:   o.MaterialName,
					Ordered:        decimal.Zero,
					Delivered:      decimal.Zero,
					Remaining:      decimal.Zero,
				},
				allComplete: true,
			}
			items[o.MaterialItemID] = acc
			seen = append(seen, o.MaterialItemID)
		}

		state := ComputeDeliveryState(o, deliveries[o.ID])
		acc.dto.OrderCount++
		acc.dto.Ordered = acc.dto.Ordered.Add(state.Ordered)
		acc.dto.Delivered = acc.dto.Delivered.Add(state.TotalDelivered)
		if state.Remaining.IsPositive() {
			acc.dto.Remaining = acc.dto.Remaining.Add(state.Remaining)
		}
		if !state.IsComplete {
			acc.allComplete = false
		}
	}

	result := make([]domain.ItemDeliveryStatusDTO, 0, len(seen))
	pending, complete := 0, 0
	for _, id := range seen {
		acc := items[id]
		switch {
		case acc.allComplete:
			acc.dto.Status = domain.ItemStatusComplete
			complete++
		case acc.dto.Delivered.IsZero():
			acc.dto.Status = domain.ItemStatusPending
			pending++
		default:
			acc.dto.Status = domain.ItemStatusPartial
		}
		result = append(result, acc.dto)
	}

	overall := domain.ItemStatusPartial
	switch {
	case len(result) == 0 || pending == len(result):
		overall = domain.ItemStatusPending
	case complete == len(result):
		overall = domain.ItemStatusComplete
	}
	return result, overall
}

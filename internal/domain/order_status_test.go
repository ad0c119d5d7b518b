package domain_test

import (
	"testing"

	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		allowed bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusApproved, true},
		{domain.OrderStatusPending, domain.OrderStatusPartiallyDelivered, true},
		{domain.OrderStatusApproved, domain.OrderStatusDelivered, true},
		{domain.OrderStatusPartiallyDelivered, domain.OrderStatusPartiallyDelivered, true},
		{domain.OrderStatusPartiallyDelivered, domain.OrderStatusDelivered, true},
		{domain.OrderStatusPartiallyDelivered, domain.OrderStatusCancelled, true},
		{domain.OrderStatusApproved, domain.OrderStatusRejected, true},
		{domain.OrderStatusDelivered, domain.OrderStatusCompleted, true},

		{domain.OrderStatusDelivered, domain.OrderStatusRejected, false},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCompleted, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCompleted, domain.OrderStatusRejected, false},
		{domain.OrderStatusRejected, domain.OrderStatusPending, false},
		{domain.OrderStatusCancelled, domain.OrderStatusApproved, false},
		{domain.OrderStatusPartiallyDelivered, domain.OrderStatusPending, false},
		{domain.OrderStatusPending, domain.OrderStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_AcceptsDeliveries(t *testing.T) {
	assert.True(t, domain.OrderStatusPending.AcceptsDeliveries())
	assert.True(t, domain.OrderStatusPartiallyDelivered.AcceptsDeliveries())
	assert.True(t, domain.OrderStatusDelivered.AcceptsDeliveries())
	assert.False(t, domain.OrderStatusRejected.AcceptsDeliveries())
	assert.False(t, domain.OrderStatusCancelled.AcceptsDeliveries())
	assert.False(t, domain.OrderStatusCompleted.AcceptsDeliveries())
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range []domain.OrderStatus{domain.OrderStatusCompleted, domain.OrderStatusRejected, domain.OrderStatusCancelled} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, domain.OrderStatusDelivered.IsTerminal())
}

func TestInventoryStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, domain.InventoryStatusActive.CanTransitionTo(domain.InventoryStatusReturned))
	assert.True(t, domain.InventoryStatusActive.CanTransitionTo(domain.InventoryStatusLost))
	assert.True(t, domain.InventoryStatusActive.CanTransitionTo(domain.InventoryStatusDamaged))
	assert.False(t, domain.InventoryStatusActive.CanTransitionTo(domain.InventoryStatusActive))
	assert.False(t, domain.InventoryStatusReturned.CanTransitionTo(domain.InventoryStatusActive))
	assert.False(t, domain.InventoryStatusLost.CanTransitionTo(domain.InventoryStatusDamaged))
}

func TestInventoryCategory_IsConsumable(t *testing.T) {
	consumable := []domain.InventoryCategory{domain.CategoryControlledConsumable, domain.CategoryConsumableSupply}
	durable := []domain.InventoryCategory{domain.CategoryTool, domain.CategoryEquipment, domain.CategoryProtectiveGear, domain.CategoryMaterial}
	for _, c := range consumable {
		assert.True(t, c.IsConsumable(), c)
	}
	for _, c := range durable {
		assert.False(t, c.IsConsumable(), c)
	}
}

package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestUserInventoryItem_Identity(t *testing.T) {
	productID := uuid.New()

	t.Run("linked item is identified by product", func(t *testing.T) {
		item := &domain.UserInventoryItem{ProductID: &productID, ItemName: "Drill bits"}
		switch id := item.Identity().(type) {
		case domain.ByProductID:
			assert.Equal(t, productID, id.ID)
		default:
			t.Fatalf("unexpected identity %T", id)
		}
	})

	t.Run("legacy item is identified by name", func(t *testing.T) {
		item := &domain.UserInventoryItem{ItemName: "Gloves"}
		id, ok := item.Identity().(domain.ByNameOnly)
		assert.True(t, ok)
		assert.Equal(t, "name:Gloves", id.String())
	})

	t.Run("nil product id counts as name only", func(t *testing.T) {
		nilID := uuid.Nil
		item := &domain.UserInventoryItem{ProductID: &nilID, ItemName: "Tape"}
		_, ok := item.Identity().(domain.ByNameOnly)
		assert.True(t, ok)
	})
}

func TestUserInventoryItem_Remaining(t *testing.T) {
	item := &domain.UserInventoryItem{Quantity: dec("10"), ConsumedQuantity: dec("3.5")}
	assert.True(t, item.Remaining().Equal(dec("6.5")))
}

func TestStockMovement_Consistent(t *testing.T) {
	tests := []struct {
		name       string
		movement   domain.StockMovement
		consistent bool
	}{
		{"entry", domain.StockMovement{Direction: domain.DirectionIn, Quantity: dec("5"), PreviousQuantity: dec("2"), NewQuantity: dec("7")}, true},
		{"exit into negative", domain.StockMovement{Direction: domain.DirectionOut, Quantity: dec("5"), PreviousQuantity: dec("2"), NewQuantity: dec("-3")}, true},
		{"wrong direction", domain.StockMovement{Direction: domain.DirectionOut, Quantity: dec("5"), PreviousQuantity: dec("2"), NewQuantity: dec("7")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.consistent, tt.movement.Consistent())
		})
	}
}

// Package events publishes ledger events for downstream consumers (reporting, notifications).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeDeliveryRecorded     = "DeliveryRecorded"
	TypeOrderStatusChanged   = "OrderStatusChanged"
	TypeStockMovementApplied = "StockMovementApplied"
	TypeTransferInconsistent = "TransferInconsistent"
	TypeInventoryAssigned    = "InventoryAssigned"
	TypeInventoryConsumed    = "InventoryConsumed"
	TypeInventoryStatus      = "InventoryStatusChanged"
)

// Event is the envelope written to the broker
type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	// Key partitions the topic so events for one aggregate stay ordered
	Key string `json:"-"`
}

// New builds an event keyed by the aggregate it concerns
func New(eventType, key string, payload interface{}) Event {
	return Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		Key:       key,
	}
}

// Publisher sends events to the broker
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// NopPublisher drops every event. Used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

func (NopPublisher) Close() error { return nil }

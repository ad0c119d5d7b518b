package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	e := events.New(events.TypeDeliveryRecorded, "order-1", map[string]string{"quantity": "4"})

	_, err := uuid.Parse(e.EventID)
	require.NoError(t, err)
	assert.Equal(t, events.TypeDeliveryRecorded, e.EventType)
	assert.Equal(t, "order-1", e.Key)
	assert.False(t, e.Timestamp.IsZero())

	other := events.New(events.TypeDeliveryRecorded, "order-1", nil)
	assert.NotEqual(t, e.EventID, other.EventID)
}

func TestEvent_KeyIsNotSerialized(t *testing.T) {
	data, err := json.Marshal(events.New(events.TypeStockMovementApplied, "stock:a:b", map[string]int{"n": 1}))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "StockMovementApplied", decoded["event_type"])
	assert.Contains(t, decoded, "payload")
	assert.NotContains(t, decoded, "Key")
	assert.NotContains(t, decoded, "key")
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), events.New(events.TypeInventoryConsumed, "u", nil)))
	assert.NoError(t, p.Close())
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	logger := zap.NewNop()

	_, err := events.NewKafkaPublisher(nil, "ledger", logger)
	assert.Error(t, err)

	_, err = events.NewKafkaPublisher([]string{"localhost:9092"}, "", logger)
	assert.Error(t, err)

	p, err := events.NewKafkaPublisher([]string{"localhost:9092"}, "ledger", logger)
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background()), "an empty batch never reaches the broker")
	assert.NoError(t, p.Close())
}

package mapper

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// ToOrderDTO converts Order to OrderDTO. state may be nil when progress was not computed.
func ToOrderDTO(order *domain.Order, state *domain.DeliveryState) domain.OrderDTO {
	dto := domain.OrderDTO{
		ID:                order.ID,
		PurchaseRequestID: order.PurchaseRequestID,
		MaterialItemID:    order.MaterialItemID,
		MaterialName:      order.MaterialName,
		SupplierID:        order.SupplierID,
		SupplierName:      order.SupplierName,
		Quantity:          order.Quantity,
		Unit:              order.Unit,
		Amount:            order.Amount,
		Currency:          order.Currency,
		Status:            order.Status,
		DeliveredAt:       formatOptionalTime(order.DeliveredAt),
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
	if order.DeliveryDate != nil {
		dto.DeliveryDate = order.DeliveryDate.Format(dateLayout)
	}
	if state != nil {
		stateDTO := ToDeliveryStateDTO(order.ID, *state)
		dto.DeliveryState = &stateDTO
	}
	return dto
}

// ToDeliveryStateDTO converts a derived delivery state
func ToDeliveryStateDTO(orderID uuid.UUID, state domain.DeliveryState) domain.DeliveryStateDTO {
	return domain.DeliveryStateDTO{
		OrderID:        orderID,
		Ordered:        state.Ordered,
		TotalDelivered: state.TotalDelivered,
		Remaining:      state.Remaining,
		IsComplete:     state.IsComplete,
		DeliveryCount:  state.DeliveryCount,
	}
}

// ToOrderDeliveryDTO converts OrderDelivery to OrderDeliveryDTO
func ToOrderDeliveryDTO(d *domain.OrderDelivery) domain.OrderDeliveryDTO {
	photos := []string(d.DeliveryPhotoURLs)
	if photos == nil {
		photos = []string{}
	}
	return domain.OrderDeliveryDTO{
		ID:                d.ID,
		OrderID:           d.OrderID,
		DeliveredQuantity: d.DeliveredQuantity,
		DeliveredAt:       formatTime(d.DeliveredAt),
		ReceivedByID:      d.ReceivedByID,
		ReceivedByName:    d.ReceivedByName,
		DeliveryNotes:     d.DeliveryNotes,
		DeliveryPhotoURLs: photos,
		QualityCheck:      d.QualityCheck,
		DamageNotes:       d.DamageNotes,
		CreatedAt:         formatTime(d.CreatedAt),
	}
}

func ToWarehouseDTO(w *domain.Warehouse) domain.WarehouseDTO {
	return domain.WarehouseDTO{
		ID:        w.ID,
		Name:      w.Name,
		Code:      w.Code,
		Type:      w.Type,
		Location:  w.Location,
		OwnerID:   w.OwnerID,
		IsActive:  w.IsActive,
		CreatedAt: formatTime(w.CreatedAt),
	}
}

// ToWarehouseStockDTO converts a stock cell including its breakdown value objects
func ToWarehouseStockDTO(s *domain.WarehouseStock) domain.WarehouseStockDTO {
	conditions := make(map[domain.ProductCondition]decimal.Decimal)
	for c, q := range s.Conditions() {
		conditions[c] = q
	}

	var assigned map[uuid.UUID]map[domain.ProductCondition]decimal.Decimal
	if a := s.Assignments(); len(a) > 0 {
		assigned = make(map[uuid.UUID]map[domain.ProductCondition]decimal.Decimal, len(a))
		for user, b := range a {
			assigned[user] = map[domain.ProductCondition]decimal.Decimal(b.Clone())
		}
	}

	return domain.WarehouseStockDTO{
		ID:                 s.ID,
		ProductID:          s.ProductID,
		WarehouseID:        s.WarehouseID,
		Quantity:           s.Quantity,
		ConditionBreakdown: conditions,
		AssignedBreakdown:  assigned,
		Unclassified:       s.Unclassified(),
		MinStockLevel:      s.MinStockLevel,
		MaxStockLevel:      s.MaxStockLevel,
		BelowMinimum:       s.BelowMinimum(),
		UpdatedAt:          formatTime(s.UpdatedAt),
	}
}

func ToStockMovementDTO(m *domain.StockMovement) domain.StockMovementDTO {
	dto := domain.StockMovementDTO{
		ID:                     m.ID,
		ProductID:              m.ProductID,
		WarehouseID:            m.WarehouseID,
		MovementType:           m.MovementType,
		Direction:              m.Direction,
		Quantity:               m.Quantity,
		PreviousQuantity:       m.PreviousQuantity,
		NewQuantity:            m.NewQuantity,
		ProductCondition:       m.ProductCondition,
		AssignedTo:             m.AssignedTo,
		CounterpartWarehouseID: m.CounterpartWarehouseID,
		TransferGroupID:        m.TransferGroupID,
		SupplierName:           m.SupplierName,
		Currency:               m.Currency,
		Reason:                 m.Reason,
		CreatedByID:            m.CreatedByID,
		CreatedByName:          m.CreatedByName,
		InvoiceImageURLs:       []string(m.InvoiceImageURLs),
		CreatedAt:              formatTime(m.CreatedAt),
	}
	if dto.InvoiceImageURLs == nil {
		dto.InvoiceImageURLs = []string{}
	}
	if m.UnitPrice.Valid {
		price := m.UnitPrice.Decimal
		dto.UnitPrice = &price
	}
	return dto
}

func ToTransferAnomalyDTO(a *domain.TransferAnomaly) domain.TransferAnomalyDTO {
	return domain.TransferAnomalyDTO{
		ID:              a.ID,
		TransferGroupID: a.TransferGroupID,
		ProductID:       a.ProductID,
		FromWarehouseID: a.FromWarehouseID,
		ToWarehouseID:   a.ToWarehouseID,
		Quantity:        a.Quantity,
		NetDelta:        a.NetDelta,
		FailedLeg:       a.FailedLeg,
		Detail:          a.Detail,
		Status:          a.Status,
		ResolvedAt:      formatOptionalTime(a.ResolvedAt),
		ResolutionNote:  a.ResolutionNote,
		CreatedAt:       formatTime(a.CreatedAt),
	}
}

// ToUserInventoryItemDTO converts a checked-out item, exposing its identity variant as a string
func ToUserInventoryItemDTO(item *domain.UserInventoryItem) domain.UserInventoryItemDTO {
	return domain.UserInventoryItemDTO{
		ID:                item.ID,
		UserID:            item.UserID,
		ProductID:         item.ProductID,
		ItemName:          item.ItemName,
		Identity:          item.Identity().String(),
		Quantity:          item.Quantity,
		ConsumedQuantity:  item.ConsumedQuantity,
		Remaining:         item.Remaining(),
		Unit:              item.Unit,
		Status:            item.Status,
		Category:          item.Category,
		Consumable:        item.Category.IsConsumable(),
		Condition:         item.Condition,
		SourceWarehouseID: item.SourceWarehouseID,
		AssignedDate:      formatTime(item.AssignedDate),
		Notes:             item.Notes,
	}
}

func ToInventoryConsumptionDTO(c *domain.InventoryConsumption) domain.InventoryConsumptionDTO {
	return domain.InventoryConsumptionDTO{
		ID:              c.ID,
		InventoryItemID: c.InventoryItemID,
		UserID:          c.UserID,
		Quantity:        c.Quantity,
		ConsumedBefore:  c.ConsumedBefore,
		ConsumedAfter:   c.ConsumedAfter,
		Note:            c.Note,
		RecordedByID:    c.RecordedByID,
		CreatedAt:       formatTime(c.CreatedAt),
	}
}

package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Orders and deliveries

type CreateOrderRequest struct {
	PurchaseRequestID uuid.UUID       `json:"purchaseRequestId" validate:"required"`
	MaterialItemID    uuid.UUID       `json:"materialItemId" validate:"required"`
	MaterialName      string          `json:"materialName" validate:"max=255"`
	SupplierID        uuid.UUID       `json:"supplierId" validate:"required"`
	SupplierName      string          `json:"supplierName" validate:"max=255"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit" validate:"max=20"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency" validate:"omitempty,len=3"`
	DeliveryDate      string          `json:"deliveryDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	PurchaseRequestID uuid.UUID         `json:"purchaseRequestId"`
	MaterialItemID    uuid.UUID         `json:"materialItemId"`
	MaterialName      string            `json:"materialName,omitempty"`
	SupplierID        uuid.UUID         `json:"supplierId"`
	SupplierName      string            `json:"supplierName,omitempty"`
	Quantity          decimal.Decimal   `json:"quantity"`
	Unit              string            `json:"unit,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency"`
	DeliveryDate      string            `json:"deliveryDate,omitempty"`
	Status            OrderStatus       `json:"status"`
	DeliveredAt       string            `json:"deliveredAt,omitempty"`
	CreatedAt         string            `json:"createdAt"`
	UpdatedAt         string            `json:"updatedAt"`
	DeliveryState     *DeliveryStateDTO `json:"deliveryState,omitempty"`
}

type DeliveryStateDTO struct {
	OrderID        uuid.UUID       `json:"orderId"`
	Ordered        decimal.Decimal `json:"ordered"`
	TotalDelivered decimal.Decimal `json:"totalDelivered"`
	Remaining      decimal.Decimal `json:"remaining"`
	IsComplete     bool            `json:"isComplete"`
	DeliveryCount  int             `json:"deliveryCount"`
}

type OrderDeliveryDTO struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"orderId"`
	DeliveredQuantity decimal.Decimal `json:"deliveredQuantity"`
	DeliveredAt       string          `json:"deliveredAt"`
	ReceivedByID      uuid.UUID       `json:"receivedById"`
	ReceivedByName    string          `json:"receivedByName,omitempty"`
	DeliveryNotes     string          `json:"deliveryNotes,omitempty"`
	DeliveryPhotoURLs []string        `json:"deliveryPhotoUrls"`
	QualityCheck      bool            `json:"qualityCheck"`
	DamageNotes       *string         `json:"damageNotes,omitempty"`
	CreatedAt         string          `json:"createdAt"`
}

type DeliveryResultDTO struct {
	Delivery    OrderDeliveryDTO `json:"delivery"`
	State       DeliveryStateDTO `json:"state"`
	OrderStatus OrderStatus      `json:"orderStatus"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// ItemDeliveryStatus is the aggregate delivery status of one material item
type ItemDeliveryStatus string

const (
	ItemStatusPending  ItemDeliveryStatus = "pending"
	ItemStatusPartial  ItemDeliveryStatus = "partial"
	ItemStatusComplete ItemDeliveryStatus = "complete"
)

type ItemDeliveryStatusDTO struct {
	MaterialItemID uuid.UUID          `json:"materialItemId"`
	MaterialName   string             `json:"materialName,omitempty"`
	Ordered        decimal.Decimal    `json:"ordered"`
	Delivered      decimal.Decimal    `json:"delivered"`
	Remaining      decimal.Decimal    `json:"remaining"`
	OrderCount     int                `json:"orderCount"`
	Status         ItemDeliveryStatus `json:"status"`
}

type PurchaseRequestDeliverySummaryDTO struct {
	PurchaseRequestID uuid.UUID               `json:"purchaseRequestId"`
	Status            ItemDeliveryStatus      `json:"status"`
	Items             []ItemDeliveryStatusDTO `json:"items"`
}

// Warehouses and stock

type CreateWarehouseRequest struct {
	Name     string     `json:"name" validate:"required,max=200"`
	Code     string     `json:"code" validate:"required,max=50"`
	Type     string     `json:"type" validate:"required,oneof=central temporary personal_custody"`
	Location string     `json:"location" validate:"max=255"`
	OwnerID  *uuid.UUID `json:"ownerId,omitempty"`
}

type WarehouseDTO struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Code      string        `json:"code"`
	Type      WarehouseType `json:"type"`
	Location  string        `json:"location,omitempty"`
	OwnerID   *uuid.UUID    `json:"ownerId,omitempty"`
	IsActive  bool          `json:"isActive"`
	CreatedAt string        `json:"createdAt"`
}

type WarehouseStockDTO struct {
	ID                 uuid.UUID                                          `json:"id"`
	ProductID          uuid.UUID                                          `json:"productId"`
	WarehouseID        uuid.UUID                                          `json:"warehouseId"`
	Quantity           decimal.Decimal                                    `json:"quantity"`
	ConditionBreakdown map[ProductCondition]decimal.Decimal               `json:"conditionBreakdown"`
	AssignedBreakdown  map[uuid.UUID]map[ProductCondition]decimal.Decimal `json:"assignedBreakdown,omitempty"`
	Unclassified       decimal.Decimal                                    `json:"unclassified"`
	MinStockLevel      decimal.Decimal                                    `json:"minStockLevel"`
	MaxStockLevel      decimal.Decimal                                    `json:"maxStockLevel"`
	BelowMinimum       bool                                               `json:"belowMinimum"`
	UpdatedAt          string                                             `json:"updatedAt"`
}

type StockMovementDTO struct {
	ID                     uuid.UUID         `json:"id"`
	ProductID              uuid.UUID         `json:"productId"`
	WarehouseID            uuid.UUID         `json:"warehouseId"`
	MovementType           MovementType      `json:"movementType"`
	Direction              MovementDirection `json:"direction"`
	Quantity               decimal.Decimal   `json:"quantity"`
	PreviousQuantity       decimal.Decimal   `json:"previousQuantity"`
	NewQuantity            decimal.Decimal   `json:"newQuantity"`
	ProductCondition       *ProductCondition `json:"productCondition,omitempty"`
	AssignedTo             *uuid.UUID        `json:"assignedTo,omitempty"`
	CounterpartWarehouseID *uuid.UUID        `json:"counterpartWarehouseId,omitempty"`
	TransferGroupID        *uuid.UUID        `json:"transferGroupId,omitempty"`
	SupplierName           string            `json:"supplierName,omitempty"`
	UnitPrice              *decimal.Decimal  `json:"unitPrice,omitempty"`
	Currency               string            `json:"currency,omitempty"`
	Reason                 string            `json:"reason,omitempty"`
	CreatedByID            uuid.UUID         `json:"createdById"`
	CreatedByName          string            `json:"createdByName,omitempty"`
	InvoiceImageURLs       []string          `json:"invoiceImageUrls"`
	CreatedAt              string            `json:"createdAt"`
}

type MovementResultDTO struct {
	Stock    WarehouseStockDTO `json:"stock"`
	Movement StockMovementDTO  `json:"movement"`
	Warnings []string          `json:"warnings,omitempty"`
}

type TransferStockRequest struct {
	ProductID       uuid.UUID       `json:"productId" validate:"required"`
	FromWarehouseID uuid.UUID       `json:"fromWarehouseId" validate:"required"`
	ToWarehouseID   uuid.UUID       `json:"toWarehouseId" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Condition       string          `json:"condition,omitempty" validate:"omitempty,oneof=new used defective refurbished"`
	AssignedTo      *uuid.UUID      `json:"assignedTo,omitempty"`
	AssignedFrom    *uuid.UUID      `json:"assignedFrom,omitempty"`
	Reason          string          `json:"reason" validate:"max=1000"`
}

type TransferResultDTO struct {
	TransferGroupID uuid.UUID         `json:"transferGroupId"`
	From            WarehouseStockDTO `json:"from"`
	To              WarehouseStockDTO `json:"to"`
	Warnings        []string          `json:"warnings,omitempty"`
}

type AdjustStockRequest struct {
	ProductID   uuid.UUID       `json:"productId" validate:"required"`
	WarehouseID uuid.UUID       `json:"warehouseId" validate:"required"`
	NewQuantity decimal.Decimal `json:"newQuantity"`
	Reason      string          `json:"reason" validate:"required,max=1000"`
}

type SetStockLevelsRequest struct {
	ProductID     uuid.UUID       `json:"productId" validate:"required"`
	WarehouseID   uuid.UUID       `json:"warehouseId" validate:"required"`
	MinStockLevel decimal.Decimal `json:"minStockLevel"`
	MaxStockLevel decimal.Decimal `json:"maxStockLevel"`
}

type TransferAnomalyDTO struct {
	ID              uuid.UUID       `json:"id"`
	TransferGroupID uuid.UUID       `json:"transferGroupId"`
	ProductID       uuid.UUID       `json:"productId"`
	FromWarehouseID uuid.UUID       `json:"fromWarehouseId"`
	ToWarehouseID   uuid.UUID       `json:"toWarehouseId"`
	Quantity        decimal.Decimal `json:"quantity"`
	NetDelta        decimal.Decimal `json:"netDelta"`
	FailedLeg       TransferLeg     `json:"failedLeg,omitempty"`
	Detail          string          `json:"detail,omitempty"`
	Status          AnomalyStatus   `json:"status"`
	ResolvedAt      string          `json:"resolvedAt,omitempty"`
	ResolutionNote  string          `json:"resolutionNote,omitempty"`
	CreatedAt       string          `json:"createdAt"`
}

type ResolveAnomalyRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

// Personal custody inventory

type UserInventoryItemDTO struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"userId"`
	ProductID         *uuid.UUID        `json:"productId,omitempty"`
	ItemName          string            `json:"itemName"`
	Identity          string            `json:"identity"`
	Quantity          decimal.Decimal   `json:"quantity"`
	ConsumedQuantity  decimal.Decimal   `json:"consumedQuantity"`
	Remaining         decimal.Decimal   `json:"remaining"`
	Unit              string            `json:"unit,omitempty"`
	Status            InventoryStatus   `json:"status"`
	Category          InventoryCategory `json:"category"`
	Consumable        bool              `json:"consumable"`
	Condition         *ProductCondition `json:"condition,omitempty"`
	SourceWarehouseID *uuid.UUID        `json:"sourceWarehouseId,omitempty"`
	AssignedDate      string            `json:"assignedDate"`
	Notes             string            `json:"notes,omitempty"`
}

type AssignInventoryRequest struct {
	UserID          uuid.UUID       `json:"userId" validate:"required"`
	ProductID       *uuid.UUID      `json:"productId,omitempty"`
	ItemName        string          `json:"itemName" validate:"required,max=255"`
	FromWarehouseID *uuid.UUID      `json:"fromWarehouseId,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit" validate:"max=20"`
	Category        string          `json:"category" validate:"required,oneof=controlled_consumable consumable_supply tool equipment protective_gear material"`
	Condition       string          `json:"condition,omitempty" validate:"omitempty,oneof=new used defective refurbished"`
	Notes           string          `json:"notes" validate:"max=2000"`
}

type ConsumeInventoryRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Note     string          `json:"note" validate:"max=1000"`
}

type InventoryConsumptionDTO struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventoryItemId"`
	UserID          uuid.UUID       `json:"userId"`
	Quantity        decimal.Decimal `json:"quantity"`
	ConsumedBefore  decimal.Decimal `json:"consumedBefore"`
	ConsumedAfter   decimal.Decimal `json:"consumedAfter"`
	Note            string          `json:"note,omitempty"`
	RecordedByID    uuid.UUID       `json:"recordedById"`
	CreatedAt       string          `json:"createdAt"`
}

type ConsumeResultDTO struct {
	Item        UserInventoryItemDTO    `json:"item"`
	Consumption InventoryConsumptionDTO `json:"consumption"`
	Warnings    []string                `json:"warnings,omitempty"`
}

type ChangeInventoryStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=returned lost damaged"`
}

// Reports

type LocationStockDTO struct {
	WarehouseID        uuid.UUID                            `json:"warehouseId"`
	WarehouseName      string                               `json:"warehouseName"`
	WarehouseType      WarehouseType                        `json:"warehouseType"`
	Quantity           decimal.Decimal                      `json:"quantity"`
	ConditionBreakdown map[ProductCondition]decimal.Decimal `json:"conditionBreakdown"`
	LedgerQuantity     decimal.Decimal                      `json:"ledgerQuantity"`
	Drift              decimal.Decimal                      `json:"drift"`
}

type CustodyHolderDTO struct {
	UserID      uuid.UUID       `json:"userId"`
	ItemCount   int             `json:"itemCount"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Consumed    decimal.Decimal `json:"consumed"`
}

type ProductLocationSummaryDTO struct {
	ProductID         uuid.UUID          `json:"productId"`
	Locations         []LocationStockDTO `json:"locations"`
	CustodyHolders    []CustodyHolderDTO `json:"custodyHolders"`
	TotalInWarehouses decimal.Decimal    `json:"totalInWarehouses"`
	TotalWithUsers    decimal.Decimal    `json:"totalWithUsers"`
	TotalConsumed     decimal.Decimal    `json:"totalConsumed"`
	OpenAnomalies     int                `json:"openAnomalies"`
	Balanced          bool               `json:"balanced"`
}

// Auth

type AuthUserDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Initials string   `json:"initials"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when the caller did not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// OrderStatus represents the delivery lifecycle of an order
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusApproved           OrderStatus = "approved"
	OrderStatusPartiallyDelivered OrderStatus = "partially_delivered"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusCompleted          OrderStatus = "completed"
	OrderStatusRejected           OrderStatus = "rejected"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

// Order is a commitment to deliver a quantity of one material item from one supplier
type Order struct {
	BaseModel
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialName      string          `gorm:"type:varchar(255)"`
	SupplierID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierName      string          `gorm:"type:varchar(255)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit              string          `gorm:"type:varchar(20)"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'TRY'"`
	DeliveryDate      *time.Time      `gorm:"type:date"`
	Status            OrderStatus     `gorm:"type:varchar(30);not null;default:'pending';index"`
	DeliveredAt       *time.Time
	Deliveries        []OrderDelivery `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderDelivery is one staged delivery event against an order. Rows are append-only.
type OrderDelivery struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID                   `gorm:"type:uuid;not null;index"`
	DeliveredQuantity decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	DeliveredAt       time.Time                   `gorm:"not null"`
	ReceivedByID      uuid.UUID                   `gorm:"type:uuid;not null"`
	ReceivedByName    string                      `gorm:"type:varchar(200)"`
	DeliveryNotes     string                      `gorm:"type:text"`
	DeliveryPhotoURLs datatypes.JSONSlice[string] `gorm:"not null"`
	QualityCheck      bool                        `gorm:"not null"`
	DamageNotes       *string                     `gorm:"type:text"`
	CreatedAt         time.Time                   `gorm:"not null"`
}

func (OrderDelivery) TableName() string {
	return "order_deliveries"
}

func (d *OrderDelivery) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// WarehouseType separates physical warehouses from personal custody cells
type WarehouseType string

const (
	WarehouseTypeCentral         WarehouseType = "central"
	WarehouseTypeTemporary       WarehouseType = "temporary"
	WarehouseTypePersonalCustody WarehouseType = "personal_custody"
)

// IsValid checks if the warehouse type is known
func (t WarehouseType) IsValid() bool {
	switch t {
	case WarehouseTypeCentral, WarehouseTypeTemporary, WarehouseTypePersonalCustody:
		return true
	}
	return false
}

// Warehouse is a stock location
type Warehouse struct {
	BaseModel
	Name     string        `gorm:"type:varchar(200);not null"`
	Code     string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type     WarehouseType `gorm:"type:varchar(30);not null;default:'central'"`
	Location string        `gorm:"type:varchar(255)"`
	// OwnerID is set for personal custody warehouses
	OwnerID  *uuid.UUID `gorm:"type:uuid;index"`
	IsActive bool       `gorm:"not null"`
}

func (Warehouse) TableName() string {
	return "warehouses"
}

// WarehouseStock is the current stock projection for one (product, warehouse) cell
type WarehouseStock struct {
	ID                 uuid.UUID                              `gorm:"type:uuid;primaryKey"`
	ProductID          uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_cell"`
	WarehouseID        uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_cell;index"`
	Quantity           decimal.Decimal                        `gorm:"type:decimal(18,4);not null"`
	ConditionBreakdown datatypes.JSONType[ConditionBreakdown] `gorm:"not null"`
	AssignedBreakdown  datatypes.JSONType[AssignedBreakdown]  `gorm:"not null"`
	MinStockLevel      decimal.Decimal                        `gorm:"type:decimal(18,4);not null"`
	MaxStockLevel      decimal.Decimal                        `gorm:"type:decimal(18,4);not null"`
	CreatedAt          time.Time                              `gorm:"not null"`
	UpdatedAt          time.Time                              `gorm:"not null"`
}

func (WarehouseStock) TableName() string {
	return "warehouse_stock"
}

func (s *WarehouseStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Conditions returns the condition breakdown value object
func (s *WarehouseStock) Conditions() ConditionBreakdown {
	return s.ConditionBreakdown.Data()
}

// Assignments returns the per-user custody breakdown value object
func (s *WarehouseStock) Assignments() AssignedBreakdown {
	return s.AssignedBreakdown.Data()
}

// Unclassified is the part of the quantity not attributed to any condition
func (s *WarehouseStock) Unclassified() decimal.Decimal {
	return s.Quantity.Sub(s.Conditions().Total())
}

// BelowMinimum reports whether the cell has dropped under its minimum level
func (s *WarehouseStock) BelowMinimum() bool {
	return s.MinStockLevel.IsPositive() && s.Quantity.LessThan(s.MinStockLevel)
}

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeEntry      MovementType = "entry"
	MovementTypeExit       MovementType = "exit"
	MovementTypeTransfer   MovementType = "transfer"
	MovementTypeAdjustment MovementType = "adjustment"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// MovementDirection carries the sign of a movement quantity
type MovementDirection string

const (
	DirectionIn  MovementDirection = "in"
	DirectionOut MovementDirection = "out"
)

// StockMovement is an immutable entry in the stock ledger
type StockMovement struct {
	ID                     uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	ProductID              uuid.UUID                   `gorm:"type:uuid;not null;index:idx_stock_movements_cell"`
	WarehouseID            uuid.UUID                   `gorm:"type:uuid;not null;index:idx_stock_movements_cell"`
	MovementType           MovementType                `gorm:"type:varchar(20);not null;index"`
	Direction              MovementDirection           `gorm:"type:varchar(3);not null"`
	Quantity               decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	PreviousQuantity       decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	NewQuantity            decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	ProductCondition       *ProductCondition           `gorm:"type:varchar(20)"`
	AssignedTo             *uuid.UUID                  `gorm:"type:uuid"`
	CounterpartWarehouseID *uuid.UUID                  `gorm:"type:uuid"`
	TransferGroupID        *uuid.UUID                  `gorm:"type:uuid;index"`
	SupplierName           string                      `gorm:"type:varchar(255)"`
	UnitPrice              decimal.NullDecimal         `gorm:"type:decimal(18,2)"`
	Currency               string                      `gorm:"type:varchar(3)"`
	Reason                 string                      `gorm:"type:text"`
	CreatedByID            uuid.UUID                   `gorm:"type:uuid"`
	CreatedByName          string                      `gorm:"type:varchar(200)"`
	InvoiceImageURLs       datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt              time.Time                   `gorm:"not null;index"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// SignedQuantity returns the movement quantity with its direction applied
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Consistent checks new = previous + signed(quantity)
func (m *StockMovement) Consistent() bool {
	return m.PreviousQuantity.Add(m.SignedQuantity()).Equal(m.NewQuantity)
}

// AnomalyStatus tracks the repair state of a transfer anomaly
type AnomalyStatus string

const (
	AnomalyStatusOpen        AnomalyStatus = "open"
	AnomalyStatusCompensated AnomalyStatus = "compensated"
	AnomalyStatusResolved    AnomalyStatus = "resolved"
)

// TransferLeg names one half of a two-leg transfer
type TransferLeg string

const (
	TransferLegSource      TransferLeg = "source"
	TransferLegDestination TransferLeg = "destination"
)

// TransferAnomaly flags a transfer whose legs do not balance
type TransferAnomaly struct {
	BaseModel
	TransferGroupID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	FromWarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	ToWarehouseID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// NetDelta is the sum of the recorded leg deltas; zero means balanced
	NetDelta       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FailedLeg      TransferLeg     `gorm:"type:varchar(20)"`
	Detail         string          `gorm:"type:text"`
	Status         AnomalyStatus   `gorm:"type:varchar(20);not null;default:'open';index"`
	ResolvedByID   *uuid.UUID      `gorm:"type:uuid"`
	ResolvedAt     *time.Time
	ResolutionNote string `gorm:"type:text"`
}

func (TransferAnomaly) TableName() string {
	return "transfer_anomalies"
}

// InventoryStatus is the lifecycle state of a checked-out item
type InventoryStatus string

const (
	InventoryStatusActive   InventoryStatus = "active"
	InventoryStatusReturned InventoryStatus = "returned"
	InventoryStatusLost     InventoryStatus = "lost"
	InventoryStatusDamaged  InventoryStatus = "damaged"
)

// IsTerminal reports whether no further transitions are allowed
func (s InventoryStatus) IsTerminal() bool {
	return s == InventoryStatusReturned || s == InventoryStatusLost || s == InventoryStatusDamaged
}

// InventoryCategory classifies checked-out items
type InventoryCategory string

const (
	CategoryControlledConsumable InventoryCategory = "controlled_consumable"
	CategoryConsumableSupply     InventoryCategory = "consumable_supply"
	CategoryTool                 InventoryCategory = "tool"
	CategoryEquipment            InventoryCategory = "equipment"
	CategoryProtectiveGear       InventoryCategory = "protective_gear"
	CategoryMaterial             InventoryCategory = "material"
)

// IsConsumable reports whether items of this category may be partially consumed
func (c InventoryCategory) IsConsumable() bool {
	return c == CategoryControlledConsumable || c == CategoryConsumableSupply
}

// UserInventoryItem is a quantity of a product checked out to one user
type UserInventoryItem struct {
	BaseModel
	UserID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID         *uuid.UUID        `gorm:"type:uuid;index"`
	ItemName          string            `gorm:"type:varchar(255);not null"`
	Quantity          decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	ConsumedQuantity  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Unit              string            `gorm:"type:varchar(20)"`
	Status            InventoryStatus   `gorm:"type:varchar(20);not null;default:'active';index"`
	AssignedDate      time.Time         `gorm:"not null"`
	Category          InventoryCategory `gorm:"type:varchar(50);not null"`
	SourceWarehouseID *uuid.UUID        `gorm:"type:uuid"`
	Condition         *ProductCondition `gorm:"type:varchar(20)"`
	Notes             string            `gorm:"type:text"`
}

func (UserInventoryItem) TableName() string {
	return "user_inventory"
}

// Remaining is the quantity not yet consumed
func (i *UserInventoryItem) Remaining() decimal.Decimal {
	return i.Quantity.Sub(i.ConsumedQuantity)
}

// Identity returns how this item is identified: by product or by name only
func (i *UserInventoryItem) Identity() ItemIdentity {
	if i.ProductID != nil && *i.ProductID != uuid.Nil {
		return ByProductID{ID: *i.ProductID}
	}
	return ByNameOnly{Name: i.ItemName}
}

// InventoryConsumption records one consumption action against a checked-out item
type InventoryConsumption struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ConsumedBefore  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ConsumedAfter   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Note            string          `gorm:"type:text"`
	RecordedByID    uuid.UUID       `gorm:"type:uuid"`
	CreatedAt       time.Time       `gorm:"not null"`
}

func (InventoryConsumption) TableName() string {
	return "inventory_consumptions"
}

func (c *InventoryConsumption) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/keylock"
	"github.com/sitetrack/procurement-api/internal/mapper"
	"github.com/sitetrack/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MovementInput is one signed change to a (product, warehouse) cell
type MovementInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	// Delta is signed: positive adds stock, negative removes it
	Delta        decimal.Decimal
	Type         domain.MovementType
	Condition    *domain.ProductCondition
	AssignedTo   *uuid.UUID
	SupplierName string
	UnitPrice    *decimal.Decimal
	Currency     string
	Reason       string
	Evidence     []evidence.File

	counterpart   *uuid.UUID
	transferGroup *uuid.UUID
	// target makes the delta relative to the locked cell (adjustments)
	target *decimal.Decimal
}

// TransferInput moves stock between two warehouses
type TransferInput struct {
	ProductID       uuid.UUID
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Quantity        decimal.Decimal
	Condition       *domain.ProductCondition
	// AssignedFrom is the custody holder the stock leaves, AssignedTo the one it reaches
	AssignedFrom *uuid.UUID
	AssignedTo   *uuid.UUID
	Reason       string
}

// StockMovementPayload is published for every committed ledger entry
type StockMovementPayload struct {
	MovementID      uuid.UUID                `json:"movement_id"`
	ProductID       uuid.UUID                `json:"product_id"`
	WarehouseID     uuid.UUID                `json:"warehouse_id"`
	MovementType    domain.MovementType      `json:"movement_type"`
	Direction       domain.MovementDirection `json:"direction"`
	Quantity        decimal.Decimal          `json:"quantity"`
	NewQuantity     decimal.Decimal          `json:"new_quantity"`
	TransferGroupID *uuid.UUID               `json:"transfer_group_id,omitempty"`
}

// TransferInconsistentPayload is published when a transfer leaves an anomaly behind
type TransferInconsistentPayload struct {
	AnomalyID       uuid.UUID            `json:"anomaly_id"`
	TransferGroupID uuid.UUID            `json:"transfer_group_id"`
	ProductID       uuid.UUID            `json:"product_id"`
	FromWarehouseID uuid.UUID            `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID            `json:"to_warehouse_id"`
	Quantity        decimal.Decimal      `json:"quantity"`
	NetDelta        decimal.Decimal      `json:"net_delta"`
	Status          domain.AnomalyStatus `json:"status"`
}

type movementOutcome struct {
	cell     domain.WarehouseStock
	movement domain.StockMovement
	warnings []string
}

// StockService owns the stock ledger and the per-cell stock projection
type StockService struct {
	db            *gorm.DB
	warehouseRepo *repository.WarehouseRepository
	stockRepo     *repository.StockRepository
	movementRepo  *repository.MovementRepository
	anomalyRepo   *repository.AnomalyRepository
	uploader      *evidence.Uploader
	locker        keylock.Locker
	publisher     events.Publisher
	logger        *zap.Logger
}

func NewStockService(
	db *gorm.DB,
	warehouseRepo *repository.WarehouseRepository,
	stockRepo *repository.StockRepository,
	movementRepo *repository.MovementRepository,
	anomalyRepo *repository.AnomalyRepository,
	uploader *evidence.Uploader,
	locker keylock.Locker,
	publisher events.Publisher,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		db:            db,
		warehouseRepo: warehouseRepo,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		anomalyRepo:   anomalyRepo,
		uploader:      uploader,
		locker:        locker,
		publisher:     publisher,
		logger:        logger,
	}
}

func validateMovement(in MovementInput) error {
	if !in.Type.IsValid() {
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovement, in.Type)
	}
	if in.Condition != nil && !in.Condition.IsValid() {
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidMovement, *in.Condition)
	}
	if in.ProductID == uuid.Nil || in.WarehouseID == uuid.Nil {
		return fmt.Errorf("%w: product and warehouse are required", ErrInvalidInput)
	}

	switch in.Type {
	case domain.MovementTypeEntry:
		if !in.Delta.IsPositive() {
			return fmt.Errorf("%w: entry must add stock", ErrInvalidQuantity)
		}
	case domain.MovementTypeExit:
		if !in.Delta.IsNegative() {
			return fmt.Errorf("%w: exit must remove stock", ErrInvalidQuantity)
		}
	case domain.MovementTypeTransfer:
		if in.Delta.IsZero() {
			return fmt.Errorf("%w: transfer leg cannot be zero", ErrInvalidQuantity)
		}
	}
	return nil
}

// ApplyMovement records one ledger entry and updates the cell projection in the same transaction.
// A cell pushed below zero is still recorded and reported with a negative_stock warning.
func (s *StockService) ApplyMovement(ctx context.Context, in MovementInput) (*domain.MovementResultDTO, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	out, err := s.applyMovement(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.finishMovement(ctx, in, out), nil
}

func (s *StockService) applyMovement(ctx context.Context, in MovementInput) (*movementOutcome, error) {
	unlock, err := s.locker.Lock(ctx, keylock.CellKey(in.ProductID, in.WarehouseID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock cell: %w", err)
	}
	defer unlock()

	actorID, actorName := auth.Actor(ctx)
	out := &movementOutcome{}

	err = s.cellTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.warehouseRepo.WithTx(tx).GetByID(ctx, in.WarehouseID); err != nil {
			return notFound(err, "warehouse")
		}

		stocks := s.stockRepo.WithTx(tx)
		cell, err := stocks.GetCellForUpdate(ctx, in.ProductID, in.WarehouseID)
		if err != nil {
			return fmt.Errorf("failed to read stock cell: %w", err)
		}
		if cell == nil {
			cell = &domain.WarehouseStock{
				ProductID:          in.ProductID,
				WarehouseID:        in.WarehouseID,
				ConditionBreakdown: datatypes.NewJSONType(domain.ConditionBreakdown{}),
				AssignedBreakdown:  datatypes.NewJSONType(domain.AssignedBreakdown{}),
			}
		}

		delta := in.Delta
		if in.target != nil {
			delta = in.target.Sub(cell.Quantity)
		}
		previous := cell.Quantity
		cell.Quantity = previous.Add(delta)

		if in.Condition != nil {
			cell.ConditionBreakdown = datatypes.NewJSONType(cell.Conditions().Add(*in.Condition, delta))
			if in.AssignedTo != nil {
				cell.AssignedBreakdown = datatypes.NewJSONType(cell.Assignments().Add(*in.AssignedTo, *in.Condition, delta))
			}
		}
		if err := stocks.Upsert(ctx, cell); err != nil {
			return fmt.Errorf("failed to update stock cell: %w", err)
		}

		direction := domain.DirectionIn
		if delta.IsNegative() {
			direction = domain.DirectionOut
		}
		movement := domain.StockMovement{
			ProductID:              in.ProductID,
			WarehouseID:            in.WarehouseID,
			MovementType:           in.Type,
			Direction:              direction,
			Quantity:               delta.Abs(),
			PreviousQuantity:       previous,
			NewQuantity:            cell.Quantity,
			ProductCondition:       in.Condition,
			AssignedTo:             in.AssignedTo,
			CounterpartWarehouseID: in.counterpart,
			TransferGroupID:        in.transferGroup,
			SupplierName:           in.SupplierName,
			Currency:               strings.ToUpper(in.Currency),
			Reason:                 in.Reason,
			CreatedByID:            actorID,
			CreatedByName:          actorName,
			InvoiceImageURLs:       datatypes.JSONSlice[string]{},
		}
		if in.UnitPrice != nil {
			movement.UnitPrice = decimal.NewNullDecimal(*in.UnitPrice)
		}
		if !movement.Consistent() {
			return fmt.Errorf("%w: ledger entry does not balance", ErrInvalidMovement)
		}
		if err := s.movementRepo.WithTx(tx).Create(ctx, &movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}

		out.cell = *cell
		out.movement = movement
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.cell.Quantity.IsNegative() {
		s.logger.Warn("stock went negative",
			zap.String("product_id", in.ProductID.String()),
			zap.String("warehouse_id", in.WarehouseID.String()),
			zap.String("quantity", out.cell.Quantity.String()),
			zap.String("movement_id", out.movement.ID.String()),
		)
		out.warnings = append(out.warnings, WarningNegativeStock)
	}
	return out, nil
}

// cellTransaction runs fn in a transaction and runs it once more if a new cell lost its insert race
// to another instance; the second run reads the winning row under its lock.
func (s *StockService) cellTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if errors.Is(err, repository.ErrCellExists) {
		s.logger.Debug("stock cell created concurrently, retrying on the stored row")
		err = s.db.WithContext(ctx).Transaction(fn)
	}
	return err
}

// finishMovement attaches evidence and publishes once the ledger entry is committed
func (s *StockService) finishMovement(ctx context.Context, in MovementInput, out *movementOutcome) *domain.MovementResultDTO {
	warnings := out.warnings

	if len(in.Evidence) > 0 {
		stored, err := s.uploader.UploadAll(ctx, "movements/"+out.movement.ID.String(), in.Evidence)
		if err == nil {
			urls := evidence.URLs(stored)
			err = s.movementRepo.AttachInvoiceImages(ctx, out.movement.ID, urls)
			if err == nil {
				out.movement.InvoiceImageURLs = urls
			} else {
				s.uploader.Discard(context.WithoutCancel(ctx), evidence.Paths(stored))
			}
		}
		if err != nil {
			s.logger.Warn("movement evidence not attached",
				zap.String("movement_id", out.movement.ID.String()),
				zap.Error(err),
			)
			warnings = append(warnings, WarningEvidenceUploadFailed)
		}
	}

	s.logger.Info("stock movement applied",
		zap.String("movement_id", out.movement.ID.String()),
		zap.String("product_id", in.ProductID.String()),
		zap.String("warehouse_id", in.WarehouseID.String()),
		zap.String("type", string(in.Type)),
		zap.String("delta", out.movement.SignedQuantity().String()),
		zap.String("new_quantity", out.cell.Quantity.String()),
	)

	if !publishEvents(ctx, s.publisher, s.logger, s.movementEvent(&out.movement)) {
		warnings = append(warnings, WarningEventPublishFailed)
	}

	return &domain.MovementResultDTO{
		Stock:    mapper.ToWarehouseStockDTO(&out.cell),
		Movement: mapper.ToStockMovementDTO(&out.movement),
		Warnings: warnings,
	}
}

// TransferStock writes a source leg and a destination leg sharing one transfer group id.
//
// Each leg commits on its own cell lock. If the destination leg fails after the source leg committed,
// the source leg is reversed and the group is recorded as a transfer anomaly; the caller gets an
// *InconsistentTransferError either way.
func (s *StockService) TransferStock(ctx context.Context, in TransferInput) (*domain.TransferResultDTO, error) {
	if in.ProductID == uuid.Nil || in.FromWarehouseID == uuid.Nil || in.ToWarehouseID == uuid.Nil {
		return nil, fmt.Errorf("%w: product and both warehouses are required", ErrInvalidInput)
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, ErrSameWarehouse
	}
	if !in.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if in.Condition != nil && !in.Condition.IsValid() {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidMovement, *in.Condition)
	}
	for _, id := range []uuid.UUID{in.FromWarehouseID, in.ToWarehouseID} {
		if _, err := s.warehouseRepo.GetByID(ctx, id); err != nil {
			return nil, notFound(err, "warehouse")
		}
	}

	groupID := uuid.New()
	from, to := in.FromWarehouseID, in.ToWarehouseID

	sourceLeg := MovementInput{
		ProductID:     in.ProductID,
		WarehouseID:   from,
		Delta:         in.Quantity.Neg(),
		Type:          domain.MovementTypeTransfer,
		Condition:     in.Condition,
		AssignedTo:    in.AssignedFrom,
		Reason:        in.Reason,
		counterpart:   &to,
		transferGroup: &groupID,
	}
	source, err := s.applyMovement(ctx, sourceLeg)
	if err != nil {
		return nil, err
	}

	destination, err := s.applyMovement(ctx, MovementInput{
		ProductID:     in.ProductID,
		WarehouseID:   to,
		Delta:         in.Quantity,
		Type:          domain.MovementTypeTransfer,
		Condition:     in.Condition,
		AssignedTo:    in.AssignedTo,
		Reason:        in.Reason,
		counterpart:   &from,
		transferGroup: &groupID,
	})
	if err != nil {
		return nil, s.compensateTransfer(ctx, in, groupID, sourceLeg, err)
	}

	warnings := append(source.warnings, destination.warnings...)
	published := publishEvents(ctx, s.publisher, s.logger,
		s.movementEvent(&source.movement),
		s.movementEvent(&destination.movement),
	)
	if !published {
		warnings = append(warnings, WarningEventPublishFailed)
	}

	s.logger.Info("stock transferred",
		zap.String("transfer_group_id", groupID.String()),
		zap.String("product_id", in.ProductID.String()),
		zap.String("from_warehouse_id", from.String()),
		zap.String("to_warehouse_id", to.String()),
		zap.String("quantity", in.Quantity.String()),
	)

	return &domain.TransferResultDTO{
		TransferGroupID: groupID,
		From:            mapper.ToWarehouseStockDTO(&source.cell),
		To:              mapper.ToWarehouseStockDTO(&destination.cell),
		Warnings:        warnings,
	}, nil
}

func (s *StockService) movementEvent(m *domain.StockMovement) events.Event {
	return events.New(events.TypeStockMovementApplied, keylock.CellKey(m.ProductID, m.WarehouseID), StockMovementPayload{
		MovementID:      m.ID,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		MovementType:    m.MovementType,
		Direction:       m.Direction,
		Quantity:        m.Quantity,
		NewQuantity:     m.NewQuantity,
		TransferGroupID: m.TransferGroupID,
	})
}

func (s *StockService) compensateTransfer(ctx context.Context, in TransferInput, groupID uuid.UUID, sourceLeg MovementInput, cause error) error {
	// The request context may be what failed the destination leg
	ctx = context.WithoutCancel(ctx)

	reversal := sourceLeg
	reversal.Delta = sourceLeg.Delta.Neg()
	reversal.Reason = "reversal of failed transfer " + groupID.String()
	_, compErr := s.applyMovement(ctx, reversal)
	compensated := compErr == nil

	anomaly := &domain.TransferAnomaly{
		TransferGroupID: groupID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		NetDelta:        in.Quantity.Neg(),
		FailedLeg:       domain.TransferLegDestination,
		Detail:          cause.Error(),
		Status:          domain.AnomalyStatusOpen,
	}
	if compensated {
		anomaly.NetDelta = decimal.Zero
		anomaly.Status = domain.AnomalyStatusCompensated
	} else {
		anomaly.Detail += "; reversal failed: " + compErr.Error()
	}

	if err := s.anomalyRepo.Create(ctx, anomaly); err != nil {
		s.logger.Error("failed to record transfer anomaly",
			zap.String("transfer_group_id", groupID.String()),
			zap.Error(err),
		)
	}

	s.logger.Error("transfer destination leg failed",
		zap.String("transfer_group_id", groupID.String()),
		zap.String("product_id", in.ProductID.String()),
		zap.String("from_warehouse_id", in.FromWarehouseID.String()),
		zap.String("to_warehouse_id", in.ToWarehouseID.String()),
		zap.String("quantity", in.Quantity.String()),
		zap.Bool("compensated", compensated),
		zap.Error(cause),
	)

	publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeTransferInconsistent, groupID.String(), TransferInconsistentPayload{
		AnomalyID:       anomaly.ID,
		TransferGroupID: groupID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		NetDelta:        anomaly.NetDelta,
		Status:          anomaly.Status,
	}))

	return &InconsistentTransferError{
		TransferGroupID: groupID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		FailedLeg:       domain.TransferLegDestination,
		Compensated:     compensated,
		AnomalyID:       anomaly.ID,
		Cause:           cause,
	}
}

// RevertTransfer books a committed transfer back inside its own transfer group, destination leg
// first. Callers use it when the write that depended on the transfer failed. If either reversal
// leg cannot be written the group is recorded as an open transfer anomaly and an
// *InconsistentTransferError is returned.
func (s *StockService) RevertTransfer(ctx context.Context, in TransferInput, groupID uuid.UUID, cause error) error {
	ctx = context.WithoutCancel(ctx)
	from, to := in.FromWarehouseID, in.ToWarehouseID
	reason := "reversal of transfer " + groupID.String()

	failedLeg := domain.TransferLegDestination
	net := decimal.Zero
	var applied []domain.StockMovement

	back, err := s.applyMovement(ctx, MovementInput{
		ProductID:     in.ProductID,
		WarehouseID:   to,
		Delta:         in.Quantity.Neg(),
		Type:          domain.MovementTypeTransfer,
		Condition:     in.Condition,
		AssignedTo:    in.AssignedTo,
		Reason:        reason,
		counterpart:   &from,
		transferGroup: &groupID,
	})
	if err == nil {
		applied = append(applied, back.movement)
		failedLeg = domain.TransferLegSource
		net = in.Quantity.Neg()

		var home *movementOutcome
		home, err = s.applyMovement(ctx, MovementInput{
			ProductID:     in.ProductID,
			WarehouseID:   from,
			Delta:         in.Quantity,
			Type:          domain.MovementTypeTransfer,
			Condition:     in.Condition,
			AssignedTo:    in.AssignedFrom,
			Reason:        reason,
			counterpart:   &to,
			transferGroup: &groupID,
		})
		if err == nil {
			applied = append(applied, home.movement)
		}
	}

	evts := make([]events.Event, 0, len(applied))
	for i := range applied {
		evts = append(evts, s.movementEvent(&applied[i]))
	}
	publishEvents(ctx, s.publisher, s.logger, evts...)

	if err == nil {
		s.logger.Warn("transfer reverted",
			zap.String("transfer_group_id", groupID.String()),
			zap.String("product_id", in.ProductID.String()),
			zap.String("quantity", in.Quantity.String()),
			zap.NamedError("cause", cause),
		)
		return nil
	}

	anomaly := &domain.TransferAnomaly{
		TransferGroupID: groupID,
		ProductID:       in.ProductID,
		FromWarehouseID: from,
		ToWarehouseID:   to,
		Quantity:        in.Quantity,
		NetDelta:        net,
		FailedLeg:       failedLeg,
		Detail:          cause.Error() + "; reversal failed: " + err.Error(),
		Status:          domain.AnomalyStatusOpen,
	}
	if createErr := s.anomalyRepo.Create(ctx, anomaly); createErr != nil {
		s.logger.Error("failed to record transfer anomaly",
			zap.String("transfer_group_id", groupID.String()),
			zap.Error(createErr),
		)
	}

	s.logger.Error("transfer reversal failed",
		zap.String("transfer_group_id", groupID.String()),
		zap.String("product_id", in.ProductID.String()),
		zap.String("failed_leg", string(failedLeg)),
		zap.NamedError("cause", cause),
		zap.Error(err),
	)

	publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeTransferInconsistent, groupID.String(), TransferInconsistentPayload{
		AnomalyID:       anomaly.ID,
		TransferGroupID: groupID,
		ProductID:       in.ProductID,
		FromWarehouseID: from,
		ToWarehouseID:   to,
		Quantity:        in.Quantity,
		NetDelta:        anomaly.NetDelta,
		Status:          anomaly.Status,
	}))

	return &InconsistentTransferError{
		TransferGroupID: groupID,
		FromWarehouseID: from,
		ToWarehouseID:   to,
		Quantity:        in.Quantity,
		FailedLeg:       failedLeg,
		AnomalyID:       anomaly.ID,
		Cause:           fmt.Errorf("%w; reversal failed: %w", cause, err),
	}
}

// AdjustStock sets a cell to a counted quantity; the recorded delta is computed under the cell lock
func (s *StockService) AdjustStock(ctx context.Context, req *domain.AdjustStockRequest) (*domain.MovementResultDTO, error) {
	if req.NewQuantity.IsNegative() {
		return nil, fmt.Errorf("%w: counted quantity cannot be negative", ErrInvalidQuantity)
	}
	target := req.NewQuantity
	in := MovementInput{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Type:        domain.MovementTypeAdjustment,
		Reason:      req.Reason,
		target:      &target,
	}
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	out, err := s.applyMovement(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.finishMovement(ctx, in, out), nil
}

// SetLevels updates the min/max thresholds of a cell without touching its quantity
func (s *StockService) SetLevels(ctx context.Context, productID, warehouseID uuid.UUID, minLevel, maxLevel decimal.Decimal) (*domain.WarehouseStockDTO, error) {
	if minLevel.IsNegative() || maxLevel.IsNegative() {
		return nil, fmt.Errorf("%w: stock levels cannot be negative", ErrInvalidInput)
	}
	if maxLevel.IsPositive() && maxLevel.LessThan(minLevel) {
		return nil, fmt.Errorf("%w: maximum level is below minimum level", ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, keylock.CellKey(productID, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock cell: %w", err)
	}
	defer unlock()

	var result domain.WarehouseStock
	err = s.cellTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.warehouseRepo.WithTx(tx).GetByID(ctx, warehouseID); err != nil {
			return notFound(err, "warehouse")
		}
		stocks := s.stockRepo.WithTx(tx)
		cell, err := stocks.GetCellForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return fmt.Errorf("failed to read stock cell: %w", err)
		}
		if cell == nil {
			cell = &domain.WarehouseStock{
				ProductID:          productID,
				WarehouseID:        warehouseID,
				ConditionBreakdown: datatypes.NewJSONType(domain.ConditionBreakdown{}),
				AssignedBreakdown:  datatypes.NewJSONType(domain.AssignedBreakdown{}),
			}
		}
		cell.MinStockLevel = minLevel
		cell.MaxStockLevel = maxLevel
		if err := stocks.Upsert(ctx, cell); err != nil {
			return fmt.Errorf("failed to update stock levels: %w", err)
		}
		result = *cell
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToWarehouseStockDTO(&result)
	return &dto, nil
}

// GetStock returns the projection of one cell, zero when nothing was ever recorded there
func (s *StockService) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*domain.WarehouseStockDTO, error) {
	cell, err := s.stockRepo.GetCell(ctx, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	if cell == nil {
		cell = &domain.WarehouseStock{
			ProductID:          productID,
			WarehouseID:        warehouseID,
			ConditionBreakdown: datatypes.NewJSONType(domain.ConditionBreakdown{}),
			AssignedBreakdown:  datatypes.NewJSONType(domain.AssignedBreakdown{}),
		}
	}
	dto := mapper.ToWarehouseStockDTO(cell)
	return &dto, nil
}

func (s *StockService) ListStock(ctx context.Context, page, pageSize int, filters *repository.StockFilters, sort repository.SortConfig) ([]domain.WarehouseStockDTO, int64, error) {
	cells, total, err := s.stockRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock: %w", err)
	}
	dtos := make([]domain.WarehouseStockDTO, len(cells))
	for i := range cells {
		dtos[i] = mapper.ToWarehouseStockDTO(&cells[i])
	}
	return dtos, total, nil
}

func (s *StockService) ListMovements(ctx context.Context, page, pageSize int, filters *repository.MovementFilters, sort repository.SortConfig) ([]domain.StockMovementDTO, int64, error) {
	movements, total, err := s.movementRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	dtos := make([]domain.StockMovementDTO, len(movements))
	for i := range movements {
		dtos[i] = mapper.ToStockMovementDTO(&movements[i])
	}
	return dtos, total, nil
}

func (s *StockService) ListAnomalies(ctx context.Context, page, pageSize int, filters *repository.AnomalyFilters) ([]domain.TransferAnomalyDTO, int64, error) {
	anomalies, total, err := s.anomalyRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list anomalies: %w", err)
	}
	dtos := make([]domain.TransferAnomalyDTO, len(anomalies))
	for i := range anomalies {
		dtos[i] = mapper.ToTransferAnomalyDTO(&anomalies[i])
	}
	return dtos, total, nil
}

// ResolveAnomaly closes an anomaly after the stock has been corrected by hand
func (s *StockService) ResolveAnomaly(ctx context.Context, id uuid.UUID, note string) (*domain.TransferAnomalyDTO, error) {
	anomaly, err := s.anomalyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "transfer anomaly")
	}
	if anomaly.Status == domain.AnomalyStatusResolved {
		return nil, fmt.Errorf("%w: anomaly already resolved", ErrInvalidStatusTransition)
	}

	actorID, _ := auth.Actor(ctx)
	now := time.Now().UTC()
	anomaly.Status = domain.AnomalyStatusResolved
	anomaly.ResolvedByID = &actorID
	anomaly.ResolvedAt = &now
	anomaly.ResolutionNote = strings.TrimSpace(note)

	if err := s.anomalyRepo.Update(ctx, anomaly); err != nil {
		return nil, fmt.Errorf("failed to resolve anomaly: %w", err)
	}

	s.logger.Info("transfer anomaly resolved",
		zap.String("anomaly_id", id.String()),
		zap.String("transfer_group_id", anomaly.TransferGroupID.String()),
		zap.String("resolved_by", actorID.String()),
	)

	dto := mapper.ToTransferAnomalyDTO(anomaly)
	return &dto, nil
}

// ReconcileTransfers scans transfer groups older than grace and flags every one whose legs do not balance.
// It returns the number of anomalies created.
func (s *StockService) ReconcileTransfers(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-grace)
	groups, err := s.movementRepo.ListUnflaggedTransferGroups(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list transfer groups: %w", err)
	}

	flagged := 0
	for _, group := range groups {
		anomaly := anomalyFromGroup(group)
		if anomaly == nil {
			continue
		}
		if err := s.anomalyRepo.Create(ctx, anomaly); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return flagged, err
			}
			s.logger.Error("failed to flag transfer group",
				zap.String("transfer_group_id", group.ID.String()),
				zap.Error(err),
			)
			continue
		}
		flagged++

		s.logger.Warn("unbalanced transfer flagged",
			zap.String("transfer_group_id", group.ID.String()),
			zap.String("product_id", anomaly.ProductID.String()),
			zap.String("net_delta", anomaly.NetDelta.String()),
			zap.Int("legs", len(group.Legs)),
		)
		publishEvents(ctx, s.publisher, s.logger, events.New(events.TypeTransferInconsistent, group.ID.String(), TransferInconsistentPayload{
			AnomalyID:       anomaly.ID,
			TransferGroupID: group.ID,
			ProductID:       anomaly.ProductID,
			FromWarehouseID: anomaly.FromWarehouseID,
			ToWarehouseID:   anomaly.ToWarehouseID,
			Quantity:        anomaly.Quantity,
			NetDelta:        anomaly.NetDelta,
			Status:          anomaly.Status,
		}))
	}
	return flagged, nil
}

// anomalyFromGroup returns nil for a balanced two-leg group
func anomalyFromGroup(group repository.TransferGroup) *domain.TransferAnomaly {
	net := group.NetDelta()
	var out, in *domain.StockMovement
	for i := range group.Legs {
		leg := &group.Legs[i]
		if leg.Direction == domain.DirectionOut && out == nil {
			out = leg
		}
		if leg.Direction == domain.DirectionIn && in == nil {
			in = leg
		}
	}
	if net.IsZero() && out != nil && in != nil {
		return nil
	}

	first := group.Legs[0]
	anomaly := &domain.TransferAnomaly{
		TransferGroupID: group.ID,
		ProductID:       first.ProductID,
		Quantity:        first.Quantity,
		NetDelta:        net,
		Status:          domain.AnomalyStatusOpen,
		Detail:          fmt.Sprintf("%d ledger legs do not balance", len(group.Legs)),
	}
	switch {
	case out != nil:
		anomaly.FromWarehouseID = out.WarehouseID
		if out.CounterpartWarehouseID != nil {
			anomaly.ToWarehouseID = *out.CounterpartWarehouseID
		}
	case in != nil:
		anomaly.ToWarehouseID = in.WarehouseID
		if in.CounterpartWarehouseID != nil {
			anomaly.FromWarehouseID = *in.CounterpartWarehouseID
		}
	}
	switch {
	case in == nil:
		anomaly.FailedLeg = domain.TransferLegDestination
	case out == nil:
		anomaly.FailedLeg = domain.TransferLegSource
	}
	return anomaly
}

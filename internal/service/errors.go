package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidQuantity is returned for zero, negative or wrongly signed quantities
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrMissingEvidence is returned when a delivery has no photos
	ErrMissingEvidence = errors.New("at least one evidence file is required")

	// ErrExceedsRemaining is matched by *ExceedsRemainingError
	ErrExceedsRemaining = errors.New("quantity exceeds remaining")

	// ErrNotConsumable is returned when consuming a non-consumable inventory category
	ErrNotConsumable = errors.New("item category is not consumable")

	// ErrUploadFailed is returned when evidence could not be stored; nothing was recorded
	ErrUploadFailed = errors.New("evidence upload failed")

	// ErrPersistenceFailed is returned when the ledger write failed after evidence was stored
	ErrPersistenceFailed = errors.New("failed to persist record")

	// ErrInconsistentTransfer is matched by *InconsistentTransferError
	ErrInconsistentTransfer = errors.New("transfer legs are inconsistent")

	// ErrOrderNotDeliverable is returned for deliveries against rejected, cancelled or completed orders
	ErrOrderNotDeliverable = errors.New("order cannot receive deliveries")

	// ErrInvalidStatusTransition is returned when a status change is not allowed
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrItemNotActive is returned when consuming an item that is no longer active
	ErrItemNotActive = errors.New("inventory item is not active")

	// ErrInvalidMovement is returned for unknown movement types or conditions
	ErrInvalidMovement = errors.New("invalid stock movement")

	// ErrSameWarehouse is returned for transfers whose source and destination are equal
	ErrSameWarehouse = errors.New("source and destination warehouse must differ")
)

// Soft warnings attached to successful results
const (
	WarningDamageNotesMissing   = "damage_notes_missing"
	WarningNegativeStock        = "negative_stock"
	WarningEvidenceUploadFailed = "evidence_upload_failed"
	WarningEventPublishFailed   = "event_publish_failed"
	// WarningCustodyStockNotUpdated means a consumption was recorded but the custody cell was not drawn down
	WarningCustodyStockNotUpdated = "custody_stock_not_updated"
)

// ExceedsRemainingError reports the remaining quantity that a request exceeded
type ExceedsRemainingError struct {
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *ExceedsRemainingError) Error() string {
	return fmt.Sprintf("quantity %s exceeds remaining %s", e.Requested.String(), e.Remaining.String())
}

func (e *ExceedsRemainingError) Is(target error) bool {
	return target == ErrExceedsRemaining
}

// InconsistentTransferError describes a transfer whose destination leg failed after the source leg was written
type InconsistentTransferError struct {
	TransferGroupID uuid.UUID
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Quantity        decimal.Decimal
	FailedLeg       domain.TransferLeg
	Compensated     bool
	AnomalyID       uuid.UUID
	Cause           error
}

func (e *InconsistentTransferError) Error() string {
	state := "compensation failed"
	if e.Compensated {
		state = "source leg reversed"
	}
	return fmt.Sprintf("transfer %s from %s to %s failed on %s leg (%s): %v",
		e.TransferGroupID, e.FromWarehouseID, e.ToWarehouseID, e.FailedLeg, state, e.Cause)
}

func (e *InconsistentTransferError) Is(target error) bool {
	return target == ErrInconsistentTransfer
}

func (e *InconsistentTransferError) Unwrap() error {
	return e.Cause
}

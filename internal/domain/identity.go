package domain

import "github.com/google/uuid"

// ItemIdentity identifies a checked-out item. Legacy items carry only a name,
// so consumers must handle both ByProductID and ByNameOnly.
type ItemIdentity interface {
	isItemIdentity()
	String() string
}

// ByProductID identifies an item through its catalog product
type ByProductID struct {
	ID uuid.UUID
}

func (ByProductID) isItemIdentity() {}

func (p ByProductID) String() string {
	return "product:" + p.ID.String()
}

// ByNameOnly identifies a legacy item that was never linked to a product
type ByNameOnly struct {
	Name string
}

func (ByNameOnly) isItemIdentity() {}

func (n ByNameOnly) String() string {
	return "name:" + n.Name
}

package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCondition is the physical condition of a stocked product
type ProductCondition string

const (
	ConditionNew         ProductCondition = "new"
	ConditionUsed        ProductCondition = "used"
	ConditionDefective   ProductCondition = "defective"
	ConditionRefurbished ProductCondition = "refurbished"
)

// AllConditions lists conditions in report order
var AllConditions = []ProductCondition{
	ConditionNew,
	ConditionUsed,
	ConditionDefective,
	ConditionRefurbished,
}

// IsValid checks if the condition is known
func (c ProductCondition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionDefective, ConditionRefurbished:
		return true
	}
	return false
}

// ConditionBreakdown maps a condition to the quantity held in that condition.
// Entries never go below zero; an entry that reaches zero is removed.
type ConditionBreakdown map[ProductCondition]decimal.Decimal

// Clone returns an independent copy
func (b ConditionBreakdown) Clone() ConditionBreakdown {
	out := make(ConditionBreakdown, len(b))
	for c, q := range b {
		out[c] = q
	}
	return out
}

// Get returns the quantity for a condition, zero when absent
func (b ConditionBreakdown) Get(c ProductCondition) decimal.Decimal {
	if q, ok := b[c]; ok {
		return q
	}
	return decimal.Zero
}

// Add returns a new breakdown with delta accumulated into condition c, floored at zero
func (b ConditionBreakdown) Add(c ProductCondition, delta decimal.Decimal) ConditionBreakdown {
	out := b.Clone()
	next := out.Get(c).Add(delta)
	if next.IsPositive() {
		out[c] = next
	} else {
		delete(out, c)
	}
	return out
}

// Merge accumulates every entry of other into a copy of b
func (b ConditionBreakdown) Merge(other ConditionBreakdown) ConditionBreakdown {
	out := b.Clone()
	for c, q := range other {
		out = out.Add(c, q)
	}
	return out
}

// Total sums all conditions
func (b ConditionBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, q := range b {
		total = total.Add(q)
	}
	return total
}

// AssignedBreakdown tracks personal custody stock as user -> condition -> quantity
type AssignedBreakdown map[uuid.UUID]ConditionBreakdown

// Clone returns an independent deep copy
func (a AssignedBreakdown) Clone() AssignedBreakdown {
	out := make(AssignedBreakdown, len(a))
	for user, b := range a {
		out[user] = b.Clone()
	}
	return out
}

// ForUser returns the breakdown held by a user, empty when none
func (a AssignedBreakdown) ForUser(user uuid.UUID) ConditionBreakdown {
	if b, ok := a[user]; ok {
		return b.Clone()
	}
	return ConditionBreakdown{}
}

// Add returns a new breakdown with delta accumulated for (user, condition), floored at zero.
// Users left with nothing are dropped.
func (a AssignedBreakdown) Add(user uuid.UUID, c ProductCondition, delta decimal.Decimal) AssignedBreakdown {
	out := a.Clone()
	next := out.ForUser(user).Add(c, delta)
	if len(next) == 0 {
		delete(out, user)
	} else {
		out[user] = next
	}
	return out
}

// Total sums custody stock across all users
func (a AssignedBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, b := range a {
		total = total.Add(b.Total())
	}
	return total
}

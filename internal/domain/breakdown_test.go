package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConditionBreakdown_Add(t *testing.T) {
	tests := []struct {
		name     string
		start    domain.ConditionBreakdown
		cond     domain.ProductCondition
		delta    string
		expected map[domain.ProductCondition]string
	}{
		{
			name:     "adds to empty breakdown",
			start:    domain.ConditionBreakdown{},
			cond:     domain.ConditionNew,
			delta:    "5",
			expected: map[domain.ProductCondition]string{domain.ConditionNew: "5"},
		},
		{
			name:     "accumulates existing entry",
			start:    domain.ConditionBreakdown{domain.ConditionUsed: dec("2.5")},
			cond:     domain.ConditionUsed,
			delta:    "1.25",
			expected: map[domain.ProductCondition]string{domain.ConditionUsed: "3.75"},
		},
		{
			name:     "floors at zero and drops the entry",
			start:    domain.ConditionBreakdown{domain.ConditionNew: dec("3")},
			cond:     domain.ConditionNew,
			delta:    "-10",
			expected: map[domain.ProductCondition]string{},
		},
		{
			name:     "negative delta on absent condition stays absent",
			start:    domain.ConditionBreakdown{domain.ConditionNew: dec("3")},
			cond:     domain.ConditionDefective,
			delta:    "-1",
			expected: map[domain.ProductCondition]string{domain.ConditionNew: "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Add(tt.cond, dec(tt.delta))
			assert.Len(t, got, len(tt.expected))
			for c, q := range tt.expected {
				assert.True(t, got.Get(c).Equal(dec(q)), "condition %s: got %s want %s", c, got.Get(c), q)
			}
		})
	}
}

func TestConditionBreakdown_AddDoesNotMutateReceiver(t *testing.T) {
	original := domain.ConditionBreakdown{domain.ConditionNew: dec("4")}
	_ = original.Add(domain.ConditionNew, dec("6"))
	assert.True(t, original.Get(domain.ConditionNew).Equal(dec("4")))
}

func TestConditionBreakdown_TotalAndMerge(t *testing.T) {
	a := domain.ConditionBreakdown{domain.ConditionNew: dec("1"), domain.ConditionUsed: dec("2")}
	b := domain.ConditionBreakdown{domain.ConditionUsed: dec("3"), domain.ConditionDefective: dec("0.5")}

	merged := a.Merge(b)
	assert.True(t, merged.Total().Equal(dec("6.5")))
	assert.True(t, merged.Get(domain.ConditionUsed).Equal(dec("5")))
	assert.True(t, a.Total().Equal(dec("3")))
}

func TestAssignedBreakdown_Add(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	a := domain.AssignedBreakdown{}
	a = a.Add(alice, domain.ConditionNew, dec("3"))
	a = a.Add(bob, domain.ConditionUsed, dec("2"))
	a = a.Add(alice, domain.ConditionUsed, dec("1"))

	assert.True(t, a.Total().Equal(dec("6")))
	assert.True(t, a.ForUser(alice).Total().Equal(dec("4")))

	t.Run("user left with nothing is dropped", func(t *testing.T) {
		next := a.Add(bob, domain.ConditionUsed, dec("-5"))
		_, ok := next[bob]
		assert.False(t, ok)
		assert.True(t, next.Total().Equal(dec("4")))
	})

	t.Run("clone is deep", func(t *testing.T) {
		clone := a.Clone()
		clone[alice][domain.ConditionNew] = dec("100")
		assert.True(t, a.ForUser(alice).Get(domain.ConditionNew).Equal(dec("3")))
	})

	t.Run("unknown user has empty breakdown", func(t *testing.T) {
		assert.Empty(t, a.ForUser(uuid.New()))
	})
}

func TestWarehouseStock_Derived(t *testing.T) {
	cell := &domain.WarehouseStock{
		Quantity:           dec("10"),
		MinStockLevel:      dec("12"),
		ConditionBreakdown: datatypes.NewJSONType(domain.ConditionBreakdown{domain.ConditionNew: dec("7")}),
	}

	assert.True(t, cell.Unclassified().Equal(dec("3")))
	assert.True(t, cell.BelowMinimum())

	cell.MinStockLevel = decimal.Zero
	assert.False(t, cell.BelowMinimum(), "no minimum configured")
}

package service_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/sitetrack/procurement-api/internal/events"
	"github.com/sitetrack/procurement-api/internal/evidence"
	"github.com/sitetrack/procurement-api/internal/service"
	"github.com/sitetrack/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photos(names ...string) []evidence.File {
	files := make([]evidence.File, len(names))
	for i, name := range names {
		files[i] = testutil.EvidenceFile(name, "jpeg bytes of "+name)
	}
	return files
}

func TestDeliveryService_StagedDeliveriesCompleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx, user := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)

	first, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity:     testutil.Dec("4"),
		Evidence:     photos("truck.jpg", "pallet.jpg"),
		QualityCheck: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPartiallyDelivered, first.OrderStatus)
	assert.Equal(t, "6", first.State.Remaining.String())
	assert.False(t, first.State.IsComplete)
	assert.Len(t, first.Delivery.DeliveryPhotoURLs, 2)
	assert.Equal(t, user.UserID, first.Delivery.ReceivedByID)
	assert.Empty(t, first.Warnings)

	second, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity:     testutil.Dec("6"),
		Evidence:     photos("rest.jpg"),
		QualityCheck: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, second.OrderStatus)
	assert.True(t, second.State.Remaining.IsZero())
	assert.True(t, second.State.IsComplete)
	assert.Equal(t, 2, second.State.DeliveryCount)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
	assert.NotEmpty(t, stored.DeliveredAt)

	deliveries, err := f.deliveries.ListDeliveries(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, deliveries, 2)
	assert.Len(t, f.store.Paths(), 3)
	assert.Equal(t, []string{events.TypeDeliveryRecorded, events.TypeDeliveryRecorded}, f.publisher.Types())
}

func TestDeliveryService_ChecksRunInOrder(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "5", domain.OrderStatusApproved)

	tests := []struct {
		name    string
		in      service.SubmitDeliveryInput
		wantErr error
	}{
		{
			name:    "zero quantity without evidence reports the quantity",
			in:      service.SubmitDeliveryInput{Quantity: decimal.Zero},
			wantErr: service.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			in:      service.SubmitDeliveryInput{Quantity: testutil.Dec("-1"), Evidence: photos("a.jpg")},
			wantErr: service.ErrInvalidQuantity,
		},
		{
			name:    "too much without evidence reports the evidence",
			in:      service.SubmitDeliveryInput{Quantity: testutil.Dec("50")},
			wantErr: service.ErrMissingEvidence,
		},
		{
			name:    "too much with evidence",
			in:      service.SubmitDeliveryInput{Quantity: testutil.Dec("5.5"), Evidence: photos("a.jpg")},
			wantErr: service.ErrExceedsRemaining,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.deliveries.SubmitDelivery(ctx, order.ID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, f.store.Paths(), "rejected submissions store no evidence")
}

func TestDeliveryService_ExceedsRemainingCarriesRemaining(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)

	_, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("7.5"), Evidence: photos("a.jpg"), QualityCheck: true,
	})
	require.NoError(t, err)

	_, err = f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("3"), Evidence: photos("b.jpg"), QualityCheck: true,
	})
	var exceeds *service.ExceedsRemainingError
	require.True(t, errors.As(err, &exceeds))
	assert.Equal(t, "2.5", exceeds.Remaining.String())
	assert.Equal(t, "3", exceeds.Requested.String())

	state, err := f.deliveries.GetRemainingQuantity(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.5", state.Remaining.String())
	assert.Equal(t, 1, state.DeliveryCount)
}

func TestDeliveryService_DeliveredOrderRejectsFurtherDeliveries(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "2", domain.OrderStatusApproved)

	_, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("2"), Evidence: photos("a.jpg"), QualityCheck: true,
	})
	require.NoError(t, err)

	_, err = f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("0.1"), Evidence: photos("b.jpg"), QualityCheck: true,
	})
	var exceeds *service.ExceedsRemainingError
	require.True(t, errors.As(err, &exceeds))
	assert.True(t, exceeds.Remaining.IsZero())
}

func TestDeliveryService_ClosedOrdersAreNotDeliverable(t *testing.T) {
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusRejected,
		domain.OrderStatusCancelled,
		domain.OrderStatusCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx, _ := testutil.UserContext(auth.RoleSiteManager)
			order := testutil.CreateOrder(t, f.db, "10", status)

			_, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
				Quantity: testutil.Dec("1"), Evidence: photos("a.jpg"),
			})
			assert.ErrorIs(t, err, service.ErrOrderNotDeliverable)
		})
	}
}

func TestDeliveryService_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)

	_, err := f.deliveries.SubmitDelivery(ctx, uuid.New(), service.SubmitDeliveryInput{
		Quantity: testutil.Dec("1"), Evidence: photos("a.jpg"),
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeliveryService_DamageNotesWarning(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)

	failed, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("1"), Evidence: photos("a.jpg"), QualityCheck: false,
	})
	require.NoError(t, err)
	assert.Contains(t, failed.Warnings, service.WarningDamageNotesMissing)

	blank := "   "
	blankNotes, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("1"), Evidence: photos("b.jpg"), QualityCheck: false, DamageNotes: &blank,
	})
	require.NoError(t, err)
	assert.Contains(t, blankNotes.Warnings, service.WarningDamageNotesMissing)
	assert.Nil(t, blankNotes.Delivery.DamageNotes)

	notes := " two bags torn "
	documented, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("1"), Evidence: photos("c.jpg"), QualityCheck: false, DamageNotes: &notes,
	})
	require.NoError(t, err)
	assert.NotContains(t, documented.Warnings, service.WarningDamageNotesMissing)
	require.NotNil(t, documented.Delivery.DamageNotes)
	assert.Equal(t, "two bags torn", *documented.Delivery.DamageNotes)
}

func TestDeliveryService_UploadFailureRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)
	f.store.FailOn = "broken"

	_, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("3"),
		Evidence: photos("one.jpg", "broken.jpg", "three.jpg"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrUploadFailed)
	assert.ErrorIs(t, err, evidence.ErrUpload)

	var count int64
	require.NoError(t, f.db.Model(&domain.OrderDelivery{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.store.Paths(), "partially uploaded evidence is removed")

	state, err := f.deliveries.GetRemainingQuantity(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", state.Remaining.String())
	assert.Empty(t, f.publisher.Types())
}

func TestDeliveryService_PublishFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)
	f.publisher.Err = errors.New("broker down")

	result, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("1"), Evidence: photos("a.jpg"), QualityCheck: true,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, service.WarningEventPublishFailed)

	deliveries, err := f.deliveries.ListDeliveries(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, deliveries, 1)
}

func TestDeliveryService_ConcurrentSubmissionsNeverOverDeliver(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleSiteManager)
	order := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, exceeded := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.deliveries.SubmitDelivery(ctx, order.ID, service.SubmitDeliveryInput{
				Quantity:     testutil.Dec("3"),
				Evidence:     photos(fmt.Sprintf("crate-%d.jpg", i)),
				QualityCheck: true,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, service.ErrExceedsRemaining):
				exceeded++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	assert.Equal(t, workers-3, exceeded)

	state, err := f.deliveries.GetRemainingQuantity(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "9", state.TotalDelivered.String())
	assert.Equal(t, "1", state.Remaining.String())
	assert.Zero(t, f.locker.Len())
}

func TestDeliveryService_PurchaseRequestSummary(t *testing.T) {
	f := newFixture(t)
	ctx, _ := testutil.UserContext(auth.RoleProcurement)

	first := testutil.CreateOrder(t, f.db, "10", domain.OrderStatusApproved)
	second := testutil.CreateOrder(t, f.db, "5", domain.OrderStatusApproved)
	require.NoError(t, f.db.Model(second).Update("purchase_request_id", first.PurchaseRequestID).Error)

	_, err := f.deliveries.SubmitDelivery(ctx, first.ID, service.SubmitDeliveryInput{
		Quantity: testutil.Dec("10"), Evidence: photos("a.jpg"), QualityCheck: true,
	})
	require.NoError(t, err)

	summary, err := f.deliveries.GetPurchaseRequestSummary(ctx, first.PurchaseRequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusPartial, summary.Status)
	require.Len(t, summary.Items, 2)
	assert.Equal(t, domain.ItemStatusComplete, summary.Items[0].Status)
	assert.Equal(t, domain.ItemStatusPending, summary.Items[1].Status)

	_, err = f.deliveries.GetPurchaseRequestSummary(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cakehouse/storefront/pkg/enums"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/shopapi"
)

type stubTracker struct {
	calls  int
	number string
	order  *shopapi.TrackedOrder
	err    error
}

func (s *stubTracker) TrackOrder(_ context.Context, orderNumber string) (*shopapi.TrackedOrder, error) {
	s.calls++
	s.number = orderNumber
	return s.order, s.err
}

func TestTrackDecoratesOrder(t *testing.T) {
	tracker := &stubTracker{order: &shopapi.TrackedOrder{
		OrderNumber:  "ORD-20261019-001",
		Status:       enums.OrderStatusDelivered,
		CustomerName: "Jane Doe",
		DeliveryDate: "2026-10-21",
		TotalPrice:   decimal.NewFromInt(4850),
	}}
	svc, err := NewService(tracker, nil)
	require.NoError(t, err)

	got, err := svc.Track(context.Background(), " ORD-20261019-001 ")
	require.NoError(t, err)
	assert.Equal(t, "ORD-20261019-001", tracker.number)
	assert.Equal(t, "Delivered", got.StatusLabel)
	assert.True(t, got.Final)
	assert.Equal(t, "KSh 4,850.00", got.TotalDisplay)
}

func TestTrackUnknownStatusReadsAsPending(t *testing.T) {
	tracker := &stubTracker{order: &shopapi.TrackedOrder{OrderNumber: "ORD-1", Status: "baking"}}
	svc, err := NewService(tracker, nil)
	require.NoError(t, err)

	got, err := svc.Track(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, got.Status)
	assert.Equal(t, "Pending", got.StatusLabel)
	assert.False(t, got.Final)
}

func TestTrackRejectsMalformedNumbers(t *testing.T) {
	tracker := &stubTracker{}
	svc, err := NewService(tracker, nil)
	require.NoError(t, err)

	for _, number := range []string{"", "   ", "../admin", "ORD 1", "-ORD", string(make([]byte, maxOrderNumberLength+1))} {
		_, err := svc.Track(context.Background(), number)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "number %q", number)
	}
	assert.Zero(t, tracker.calls)
}

func TestTrackPassesBackendErrors(t *testing.T) {
	notFound := pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	svc, err := NewService(&stubTracker{err: notFound}, nil)
	require.NoError(t, err)

	_, err = svc.Track(context.Background(), "ORD-404")
	assert.True(t, errors.Is(err, notFound))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresTracker(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)
}

package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/service-booking/models"
)

func TestBookingMetrics(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	metrics := NewBookingMetrics(prometheus.NewRegistry())

	svc := newTestBookingService(t, db, nil)
	svc.metrics = metrics
	machine := NewBookingStatusMachine(db, nil, metrics)
	ctx := context.Background()

	created, err := svc.CreateBookings(ctx, bookingRequest(fx, "night",
		LineItem{ServiceID: fx.cleaning.ID, ServiceSubcategoryID: fx.deepClean.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.created.WithLabelValues("night")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(metrics.bookedAmount))

	_, err = machine.Transition(ctx, adminActor(fx), created[0].ID, StatusChange{Status: "cancelled"})
	require.NoError(t, err)
	_, err = machine.Transition(ctx, adminActor(fx), created[0].ID, StatusChange{Status: "paid"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues(string(models.BookingStatusPending), string(models.BookingStatusCancelled))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("invalid_transition")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BookingMetrics
	assert.NotPanics(t, func() {
		m.ObserveCreated(models.Booking{})
		m.ObserveTransition(models.BookingStatusPending, models.BookingStatusPaid)
		m.ObserveTransitionFailure(nil)
		m.ObservePayment(models.PaymentTransaction{})
	})
}

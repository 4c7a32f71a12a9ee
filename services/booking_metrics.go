package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yeremiapane/service-booking/models"
)

// BookingMetrics exports booking counters. A nil *BookingMetrics is a no-op.
type BookingMetrics struct {
	created      *prometheus.CounterVec
	bookedAmount prometheus.Counter
	transitions  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	payments     *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "created_total",
			Help:      "Bookings created, by shift type.",
		}, []string{"shift_type"}),
		bookedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "booked_amount_total",
			Help:      "Sum of total_amount over created bookings.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "status_transitions_total",
			Help:      "Applied status transitions.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "status_transition_failures_total",
			Help:      "Rejected status transitions, by error kind.",
		}, []string{"kind"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "payment_transactions_total",
			Help:      "Payment transactions by type and final status.",
		}, []string{"type", "status"}),
	}
	reg.MustRegister(m.created, m.bookedAmount, m.transitions, m.failures, m.payments)
	return m
}

func (m *BookingMetrics) ObserveCreated(b models.Booking) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(string(b.ShiftType)).Inc()
	m.bookedAmount.Add(b.TotalAmount.InexactFloat64())
}

func (m *BookingMetrics) ObserveTransition(from, to models.BookingStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *BookingMetrics) ObserveTransitionFailure(err error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(KindOf(err).String()).Inc()
}

func (m *BookingMetrics) ObservePayment(txn models.PaymentTransaction) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(txn.TransactionType, txn.Status).Inc()
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"gorm.io/gorm"
)

type stubGateway struct {
	result GatewayResult
	err    error
	calls  []models.PaymentTransaction
}

func (g *stubGateway) Charge(_ context.Context, txn models.PaymentTransaction) (GatewayResult, error) {
	g.calls = append(g.calls, txn)
	return g.result, g.err
}

func newTestPaymentService(db *gorm.DB, online PaymentGateway, notifier Notifier) *PaymentService {
	return NewPaymentService(db, NewBookingStatusMachine(db, notifier, nil), online, notifier, nil)
}

func reloadBooking(t *testing.T, db *gorm.DB, id uint) models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, db.First(&b, id).Error)
	return b
}

func TestAssignedWorkerSubmitsCash(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	rec := &recordingNotifier{}
	svc := newTestPaymentService(db, nil, rec)

	b := insertBooking(t, db, fx, models.BookingStatusConfirmed, &fx.worker.ID)
	txn, err := svc.PayBooking(context.Background(), workerActor(fx.workerUser, &fx.worker), b.ID, "")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, models.TransactionTypeCashSubmission, txn.TransactionType)
	assert.Equal(t, models.DefaultPaymentMethod, txn.PaymentMethod)
	assertMoney(t, "1200.00", txn.Amount)
	assert.NotEmpty(t, txn.Reference)
	assert.Equal(t, "CASH-"+txn.Reference, txn.GatewayRef)
	require.NotNil(t, txn.ProcessedAt)

	assert.Equal(t, models.BookingStatusPaid, reloadBooking(t, db, b.ID).Status)

	var types []string
	for _, ev := range rec.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{EventBookingStatusChanged, EventPaymentRecorded}, types)

	history, err := NewBookingQueryService(db).History(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.BookingStatusPaid, history[0].ToStatus)
}

func TestCustomerPaysOnline(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	gw := &stubGateway{result: GatewayResult{Approved: true, Reference: "GW-1", Message: "captured"}}
	svc := newTestPaymentService(db, gw, nil)

	b := insertBooking(t, db, fx, models.BookingStatusPending, nil)
	txn, err := svc.PayBooking(context.Background(), Actor{UserID: fx.customer.ID, Role: role.Customer}, b.ID, "card")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeOnlinePayment, txn.TransactionType)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, "GW-1", txn.GatewayRef)
	require.Len(t, gw.calls, 1)
	assert.Equal(t, models.TransactionStatusPending, gw.calls[0].Status)
	assert.Equal(t, models.BookingStatusPaid, reloadBooking(t, db, b.ID).Status)
}

func TestDeclinedPaymentLeavesBookingUnpaid(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	gw := &stubGateway{result: GatewayResult{Approved: false, Reference: "GW-2", Message: "insufficient funds"}}
	svc := newTestPaymentService(db, gw, nil)

	b := insertBooking(t, db, fx, models.BookingStatusPending, nil)
	txn, err := svc.PayBooking(context.Background(), adminActor(fx), b.ID, "card")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRejected, txn.Status)
	assert.Equal(t, "insufficient funds", txn.Notes)
	assert.Equal(t, models.BookingStatusPending, reloadBooking(t, db, b.ID).Status)

	txns, err := svc.Transactions(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionStatusRejected, txns[0].Status)
}

func TestGatewayFailureRejectsTransaction(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	gw := &stubGateway{err: errors.New("connection refused")}
	svc := newTestPaymentService(db, gw, nil)

	b := insertBooking(t, db, fx, models.BookingStatusPending, nil)
	txn, err := svc.PayBooking(context.Background(), adminActor(fx), b.ID, "card")
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	require.NotNil(t, txn)
	assert.Equal(t, models.TransactionStatusRejected, txn.Status)
	assert.Equal(t, models.BookingStatusPending, reloadBooking(t, db, b.ID).Status)
}

func TestPayBookingAuthorization(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	svc := newTestPaymentService(db, nil, nil)
	ctx := context.Background()

	assignedToPeer := insertBooking(t, db, fx, models.BookingStatusConfirmed, &fx.peer.ID)
	_, err := svc.PayBooking(ctx, workerActor(fx.workerUser, &fx.worker), assignedToPeer.ID, "")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.PayBooking(ctx, Actor{UserID: fx.workerUser.ID, Role: role.Worker}, assignedToPeer.ID, "")
	assert.ErrorIs(t, err, ErrWorkerNotFound)

	_, err = svc.PayBooking(ctx, Actor{UserID: fx.otherCustomer.ID, Role: role.Customer}, assignedToPeer.ID, "")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.PayBooking(ctx, adminActor(fx), 9999, "")
	assert.Equal(t, KindNotFound, KindOf(err))

	var n int64
	require.NoError(t, db.Model(&models.PaymentTransaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCustomerCannotSettleWithCash(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	svc := newTestPaymentService(db, nil, nil)
	customer := Actor{UserID: fx.customer.ID, Role: role.Customer}

	b := insertBooking(t, db, fx, models.BookingStatusPending, nil)

	for _, method := range []string{"", models.DefaultPaymentMethod} {
		txn, err := svc.PayBooking(context.Background(), customer, b.ID, method)
		assert.Nil(t, txn)
		assert.Equal(t, KindForbidden, KindOf(err), method)
	}

	assert.Equal(t, models.BookingStatusPending, reloadBooking(t, db, b.ID).Status)
	var n int64
	require.NoError(t, db.Model(&models.PaymentTransaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPayBookingRequiresPayableStatus(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	svc := newTestPaymentService(db, nil, nil)

	for _, status := range []models.BookingStatus{models.BookingStatusCancelled, models.BookingStatusPaid} {
		b := insertBooking(t, db, fx, status, nil)
		_, err := svc.PayBooking(context.Background(), adminActor(fx), b.ID, "")
		assert.Equal(t, KindInvalidTransition, KindOf(err), status)
	}
}

func TestOnlinePaymentNeedsGateway(t *testing.T) {
	db := setupTestDB(t)
	fx := seed(t, db)
	svc := newTestPaymentService(db, nil, nil)

	b := insertBooking(t, db, fx, models.BookingStatusPending, nil)
	_, err := svc.PayBooking(context.Background(), adminActor(fx), b.ID, "card")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.(*Error).Fields, "payment_method")
}

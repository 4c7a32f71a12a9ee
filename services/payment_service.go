package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

// PaymentService records payment transactions for bookings and, when the
// gateway approves, moves the booking to paid through the status machine.
type PaymentService struct {
	db       *gorm.DB
	gateways map[string]PaymentGateway
	online   PaymentGateway
	machine  *BookingStatusMachine
	notifier Notifier
	metrics  *BookingMetrics
}

// NewPaymentService wires cash handling plus an optional online gateway.
// Without an online gateway only cash is accepted.
func NewPaymentService(db *gorm.DB, machine *BookingStatusMachine, online PaymentGateway, notifier Notifier, metrics *BookingMetrics) *PaymentService {
	return &PaymentService{
		db:       db,
		gateways: map[string]PaymentGateway{models.DefaultPaymentMethod: CashGateway{}},
		online:   online,
		machine:  machine,
		notifier: orNop(notifier),
		metrics:  metrics,
	}
}

func (s *PaymentService) gatewayFor(method string) (PaymentGateway, string, error) {
	if g, ok := s.gateways[method]; ok {
		return g, models.TransactionTypeCashSubmission, nil
	}
	if s.online == nil {
		return nil, "", NewValidationError("payment_method", "online payments are not configured")
	}
	return s.online, models.TransactionTypeOnlinePayment, nil
}

// PayBooking charges the booking total. A declined charge returns the
// rejected transaction without error.
func (s *PaymentService) PayBooking(ctx context.Context, actor Actor, bookingID uint, method string) (*models.PaymentTransaction, error) {
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, bookingID).Error; err != nil {
		return nil, lookupError(err, "booking %d not found", bookingID)
	}
	if err := authorizePayment(actor, &booking, method); err != nil {
		return nil, err
	}
	if !CanTransition(booking.Status, models.BookingStatusPaid) {
		return nil, InvalidTransition(booking.Status, models.BookingStatusPaid)
	}

	gateway, txType, err := s.gatewayFor(method)
	if err != nil {
		return nil, err
	}

	txn := models.PaymentTransaction{
		BookingID:       booking.ID,
		WorkerID:        booking.WorkerID,
		Reference:       uuid.NewString(),
		TransactionType: txType,
		PaymentMethod:   method,
		Amount:          booking.TotalAmount,
		Status:          models.TransactionStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, writeError("failed to create payment transaction", err)
	}

	result, chargeErr := gateway.Charge(ctx, txn)
	if chargeErr != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"reference":  txn.Reference,
		}).WithError(chargeErr).Error("payment gateway call failed")
		result = GatewayResult{Message: "payment gateway unavailable"}
	}

	updated, err := s.settle(ctx, actor, booking, &txn, result)
	if err != nil {
		if rbErr := s.db.WithContext(ctx).Model(&models.PaymentTransaction{}).Where("id = ?", txn.ID).Updates(map[string]interface{}{
			"status": models.TransactionStatusRejected,
			"notes":  err.Error(),
		}).Error; rbErr != nil {
			utils.ErrorLogger.WithError(rbErr).Error("failed to reject payment transaction")
		}
		return nil, err
	}
	s.metrics.ObservePayment(txn)
	if chargeErr != nil {
		return &txn, Internal("payment gateway failed", chargeErr)
	}

	if updated != nil {
		s.machine.emit(ctx, booking.Status, *updated, actor.UserID)
		s.notifier.Notify(ctx, BookingEvent{
			Type:       EventPaymentRecorded,
			Booking:    *updated,
			FromStatus: booking.Status,
			ToStatus:   updated.Status,
			ActorID:    actor.UserID,
			OccurredAt: time.Now().UTC(),
		})
	}
	return &txn, nil
}

// settle finalizes the transaction and, on approval, applies the paid
// transition in the same database transaction.
func (s *PaymentService) settle(ctx context.Context, actor Actor, booking models.Booking, txn *models.PaymentTransaction, result GatewayResult) (*models.Booking, error) {
	var updated *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		txn.GatewayRef = result.Reference
		txn.Notes = result.Message
		txn.ProcessedBy = &actor.UserID
		txn.ProcessedAt = &now
		txn.Status = models.TransactionStatusRejected
		if result.Approved {
			txn.Status = models.TransactionStatusCompleted
		}

		if err := tx.Model(&models.PaymentTransaction{}).Where("id = ?", txn.ID).Updates(map[string]interface{}{
			"status":       txn.Status,
			"gateway_ref":  txn.GatewayRef,
			"notes":        txn.Notes,
			"processed_by": txn.ProcessedBy,
			"processed_at": txn.ProcessedAt,
		}).Error; err != nil {
			return writeError("failed to update payment transaction", err)
		}

		if !result.Approved {
			return nil
		}
		var err error
		updated, err = s.machine.apply(tx, booking, models.BookingStatusPaid, nil, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// authorizePayment lets staff and the assigned worker record any method.
// Customers pay their own bookings through the online gateway only; a cash
// claim from a customer would settle the booking with nobody collecting.
func authorizePayment(actor Actor, booking *models.Booking, method string) error {
	switch {
	case actor.Role.Can(role.ActionRecordAnyPayment):
		return nil
	case actor.Role.Can(role.ActionSubmitCash):
		if actor.Worker == nil {
			return &Error{Kind: KindNotFound, Message: ErrWorkerNotFound.Error(), Err: ErrWorkerNotFound}
		}
		if booking.WorkerID == nil || *booking.WorkerID != actor.Worker.ID {
			return Forbidden("only the assigned worker can submit payment for this booking")
		}
		return nil
	case actor.Role.Can(role.ActionPayOwnBooking):
		if booking.CustomerID != actor.UserID {
			return Forbidden("you can only pay for your own bookings")
		}
		if method == models.DefaultPaymentMethod {
			return Forbidden("cash payments are recorded by the assigned worker")
		}
		return nil
	}
	return Forbidden("you do not have permission to pay for this booking")
}

// Transactions lists payment attempts for a booking, oldest first.
func (s *PaymentService) Transactions(ctx context.Context, bookingID uint) ([]models.PaymentTransaction, error) {
	txns := []models.PaymentTransaction{}
	if err := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id ASC").Find(&txns).Error; err != nil {
		return nil, Internal("failed to list payment transactions", err)
	}
	return txns, nil
}

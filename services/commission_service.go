package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	CommissionApprove = "approve"
	CommissionReject  = "reject"

	defaultCommissionMethod = "online"
)

// CommissionSubmission is a worker's claim to have paid the commission.
// GatewayRef is the transfer's id at the payment provider.
type CommissionSubmission struct {
	BookingID     uint
	PaymentMethod string
	GatewayRef    string
	PaymentProof  string
	Notes         string
}

// CommissionService handles the platform's share of paid bookings: workers
// submit it, admins approve or reject the submission.
type CommissionService struct {
	db      *gorm.DB
	percent decimal.Decimal
	metrics *BookingMetrics
}

func NewCommissionService(db *gorm.DB, percent float64, metrics *BookingMetrics) *CommissionService {
	return &CommissionService{db: db, percent: decimal.NewFromFloat(percent), metrics: metrics}
}

// CommissionFor is the amount owed on a booking total, rounded half-up to
// two places.
func (s *CommissionService) CommissionFor(total decimal.Decimal) decimal.Decimal {
	return total.Mul(s.percent).Div(decimal.NewFromInt(100)).Round(2)
}

// Submit records a pending commission payment for a paid booking assigned to
// the calling worker. A booking carries at most one commission that is not
// rejected.
func (s *CommissionService) Submit(ctx context.Context, actor Actor, in CommissionSubmission) (*models.PaymentTransaction, error) {
	if !actor.Role.Can(role.ActionSubmitCommission) {
		return nil, Forbidden("only workers can submit commission payments")
	}
	if actor.Worker == nil {
		return nil, &Error{Kind: KindNotFound, Message: ErrWorkerNotFound.Error(), Err: ErrWorkerNotFound}
	}
	method := in.PaymentMethod
	if method == "" {
		method = defaultCommissionMethod
	}

	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND worker_id = ?", in.BookingID, actor.Worker.ID).
			First(&booking).Error
		if err != nil {
			return lookupError(err, "booking %d not found or not assigned to you", in.BookingID)
		}
		if booking.Status != models.BookingStatusPaid {
			return Precondition("booking must be paid before submitting commission")
		}

		var open int64
		err = tx.Model(&models.PaymentTransaction{}).
			Where("booking_id = ? AND transaction_type = ? AND status <> ?",
				booking.ID, models.TransactionTypeCommission, models.TransactionStatusRejected).
			Count(&open).Error
		if err != nil {
			return Internal("failed to check existing commission", err)
		}
		if open > 0 {
			return Conflict("commission already submitted for booking %d", booking.ID)
		}

		txn = models.PaymentTransaction{
			BookingID:       booking.ID,
			WorkerID:        &actor.Worker.ID,
			Reference:       uuid.NewString(),
			TransactionType: models.TransactionTypeCommission,
			PaymentMethod:   method,
			Amount:          s.CommissionFor(booking.TotalAmount),
			Status:          models.TransactionStatusPending,
			GatewayRef:      in.GatewayRef,
			Notes:           submissionNotes(in),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return writeError("failed to create commission payment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id": txn.BookingID,
		"worker_id":  actor.Worker.ID,
		"amount":     txn.Amount.StringFixed(2),
	}).Info("commission payment submitted")
	return &txn, nil
}

func submissionNotes(in CommissionSubmission) string {
	var lines []string
	if in.Notes != "" {
		lines = append(lines, in.Notes)
	}
	if in.GatewayRef != "" {
		lines = append(lines, "Transaction ID: "+in.GatewayRef)
	}
	if in.PaymentProof != "" {
		lines = append(lines, "Payment Proof: "+in.PaymentProof)
	}
	return strings.Join(lines, "\n")
}

// Process approves or rejects a pending commission payment.
func (s *CommissionService) Process(ctx context.Context, actor Actor, txnID uint, action, notes string) (*models.PaymentTransaction, error) {
	if !actor.Role.Can(role.ActionProcessCommission) {
		return nil, Forbidden("only admins can process commission payments")
	}
	var status string
	switch action {
	case CommissionApprove:
		status = models.TransactionStatusCompleted
	case CommissionReject:
		status = models.TransactionStatusRejected
	default:
		return nil, NewValidationError("action", "action must be approve or reject")
	}

	db := s.db.WithContext(ctx)
	var txn models.PaymentTransaction
	if err := db.First(&txn, txnID).Error; err != nil {
		return nil, lookupError(err, "transaction %d not found", txnID)
	}
	if txn.TransactionType != models.TransactionTypeCommission {
		return nil, Precondition("transaction %d is not a commission payment", txn.ID)
	}
	if txn.Status != models.TransactionStatusPending {
		return nil, Precondition("transaction %d has already been processed", txn.ID)
	}

	if notes != "" {
		if txn.Notes != "" {
			txn.Notes += "\n"
		}
		txn.Notes += "Admin: " + notes
	}
	now := time.Now().UTC()
	res := db.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", txn.ID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"notes":        txn.Notes,
			"processed_by": actor.UserID,
			"processed_at": now,
		})
	if res.Error != nil {
		return nil, Internal("failed to process commission payment", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, Conflict("transaction %d was processed concurrently", txn.ID)
	}

	txn.Status = status
	s.metrics.ObservePayment(txn)
	utils.InfoLogger.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"booking_id":     txn.BookingID,
		"status":         status,
		"processed_by":   actor.UserID,
	}).Info("commission payment processed")

	return s.load(ctx, txn.ID)
}

func (s *CommissionService) load(ctx context.Context, id uint) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.withRelations(ctx).First(&txn, id).Error; err != nil {
		return nil, lookupError(err, "transaction %d not found", id)
	}
	return &txn, nil
}

func (s *CommissionService) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Booking.ServiceSubcategory").
		Preload("Worker")
}

// Pending lists commission payments awaiting an admin decision, newest first.
func (s *CommissionService) Pending(ctx context.Context) ([]models.PaymentTransaction, error) {
	txns := []models.PaymentTransaction{}
	err := s.withRelations(ctx).
		Where("transaction_type = ? AND status = ?", models.TransactionTypeCommission, models.TransactionStatusPending).
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, Internal("failed to list pending commission payments", err)
	}
	return txns, nil
}

// ForWorker lists every transaction recorded against the worker.
func (s *CommissionService) ForWorker(ctx context.Context, worker *models.Worker) ([]models.PaymentTransaction, error) {
	txns := []models.PaymentTransaction{}
	if worker == nil {
		return txns, nil
	}
	err := s.withRelations(ctx).
		Where("worker_id = ?", worker.ID).
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, Internal("failed to list worker transactions", err)
	}
	return txns, nil
}

func (s *CommissionService) All(ctx context.Context) ([]models.PaymentTransaction, error) {
	txns := []models.PaymentTransaction{}
	if err := s.withRelations(ctx).Order("created_at DESC, id DESC").Find(&txns).Error; err != nil {
		return nil, Internal("failed to list transactions", err)
	}
	return txns, nil
}

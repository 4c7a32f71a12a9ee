package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

// Actor is the authenticated caller. Worker is the resolved worker profile
// when Role is role.Worker, nil if the user has none.
type Actor struct {
	UserID uint
	Role   role.Role
	Email  string
	Worker *models.Worker
}

type StatusChange struct {
	Status   string
	WorkerID *uint
}

var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusCancelled, models.BookingStatusConfirmed, models.BookingStatusPaid},
	models.BookingStatusConfirmed: {models.BookingStatusPaid},
}

// CanTransition reports whether from -> to is in the lifecycle table.
func CanTransition(from, to models.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type BookingStatusMachine struct {
	db       *gorm.DB
	notifier Notifier
	metrics  *BookingMetrics
	Now      func() time.Time
}

func NewBookingStatusMachine(db *gorm.DB, notifier Notifier, metrics *BookingMetrics) *BookingStatusMachine {
	return &BookingStatusMachine{
		db:       db,
		notifier: orNop(notifier),
		metrics:  metrics,
		Now:      time.Now,
	}
}

// Transition authorizes actor against the booking, checks the lifecycle
// table and applies the change with a conditional update.
func (m *BookingStatusMachine) Transition(ctx context.Context, actor Actor, bookingID uint, change StatusChange) (*models.Booking, error) {
	to, ok := models.ParseBookingStatus(change.Status)
	if !ok {
		return nil, NewValidationError("status", "must be one of: paid, confirmed, cancelled")
	}

	var (
		from    models.BookingStatus
		updated *models.Booking
	)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return lookupError(err, "booking %d not found", bookingID)
		}
		from = booking.Status

		assign, err := m.authorize(tx, actor, &booking, to, change.WorkerID)
		if err != nil {
			return err
		}

		updated, err = m.apply(tx, booking, to, assign, actor.UserID)
		return err
	})
	if err != nil {
		m.metrics.ObserveTransitionFailure(err)
		if KindOf(err) == KindInternal {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"booking_id": bookingID,
				"to":         to,
			}).WithError(err).Error("booking status transition failed")
		}
		return nil, err
	}

	m.emit(ctx, from, *updated, actor.UserID)
	return updated, nil
}

// authorize returns the worker id to bind, if any.
func (m *BookingStatusMachine) authorize(tx *gorm.DB, actor Actor, booking *models.Booking, to models.BookingStatus, requested *uint) (*uint, error) {
	switch {
	case actor.Role.Can(role.ActionTransitionAnyBooking):
		if to != models.BookingStatusConfirmed || booking.WorkerID != nil || requested == nil {
			return nil, nil
		}
		if !actor.Role.Can(role.ActionAssignWorker) {
			return nil, Forbidden("you cannot assign workers")
		}
		worker, err := findWorker(tx, *requested)
		if err != nil {
			return nil, err
		}
		return &worker.ID, nil

	case actor.Role.Can(role.ActionTransitionAssigned):
		worker := actor.Worker
		if worker == nil {
			return nil, &Error{Kind: KindNotFound, Message: ErrWorkerNotFound.Error(), Err: ErrWorkerNotFound}
		}
		if booking.WorkerID != nil {
			if *booking.WorkerID != worker.ID {
				return nil, Forbidden("booking is assigned to another worker")
			}
			return nil, nil
		}

		offers, err := workerOffersService(tx, worker.ID, booking.ServiceID)
		if err != nil {
			return nil, Internal("failed to check worker services", err)
		}
		if !offers {
			return nil, Forbidden("you do not offer the service for this booking")
		}
		if to == models.BookingStatusConfirmed && actor.Role.Can(role.ActionClaimBooking) {
			id := worker.ID
			return &id, nil
		}
		return nil, nil
	}

	return nil, Forbidden("you do not have permission to update this booking")
}

// apply moves snapshot to status to, provided the row still has the status
// (and, when assigning, the empty worker) seen in snapshot.
func (m *BookingStatusMachine) apply(tx *gorm.DB, snapshot models.Booking, to models.BookingStatus, assign *uint, changedBy uint) (*models.Booking, error) {
	if !CanTransition(snapshot.Status, to) {
		return nil, InvalidTransition(snapshot.Status, to)
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": m.Now().UTC(),
	}
	q := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", snapshot.ID, snapshot.Status)
	if assign != nil {
		q = q.Where("worker_id IS NULL")
		updates["worker_id"] = *assign
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return nil, writeError("failed to update booking status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, Conflict("booking %d was changed by another request, reload and retry", snapshot.ID)
	}

	workerID := snapshot.WorkerID
	if assign != nil {
		workerID = assign
	}
	event := models.BookingStatusEvent{
		BookingID:  snapshot.ID,
		FromStatus: snapshot.Status,
		ToStatus:   to,
		WorkerID:   workerID,
		ChangedBy:  changedBy,
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, writeError("failed to record status event", err)
	}

	var fresh models.Booking
	if err := tx.Preload("Worker").First(&fresh, snapshot.ID).Error; err != nil {
		return nil, Internal("failed to reload booking", err)
	}
	return &fresh, nil
}

func (m *BookingStatusMachine) emit(ctx context.Context, from models.BookingStatus, booking models.Booking, actorID uint) {
	m.metrics.ObserveTransition(from, booking.Status)
	m.notifier.Notify(ctx, BookingEvent{
		Type:       EventBookingStatusChanged,
		Booking:    booking,
		FromStatus: from,
		ToStatus:   booking.Status,
		ActorID:    actorID,
		OccurredAt: m.Now().UTC(),
	})
	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       from,
		"to":         booking.Status,
		"actor_id":   actorID,
	}).Info("booking status changed")
}

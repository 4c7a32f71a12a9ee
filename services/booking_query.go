package services

import (
	"context"

	"github.com/yeremiapane/service-booking/models"
	"gorm.io/gorm"
)

type BookingQueryService struct {
	db *gorm.DB
}

func NewBookingQueryService(db *gorm.DB) *BookingQueryService {
	return &BookingQueryService{db: db}
}

func (q *BookingQueryService) withRelations(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).
		Preload("Service").
		Preload("ServiceSubcategory").
		Preload("Worker")
}

func (q *BookingQueryService) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := q.withRelations(ctx).First(&booking, id).Error; err != nil {
		return nil, lookupError(err, "booking %d not found", id)
	}
	return &booking, nil
}

// ListByCustomer returns the customer's bookings, newest first.
func (q *BookingQueryService) ListByCustomer(ctx context.Context, customerID uint) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := q.withRelations(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, Internal("failed to list customer bookings", err)
	}
	return bookings, nil
}

// ListForWorker returns bookings assigned to the worker within the services
// the worker offers, newest first.
func (q *BookingQueryService) ListForWorker(ctx context.Context, worker *models.Worker) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if worker == nil {
		return bookings, nil
	}

	serviceIDs, err := workerServiceIDs(q.db.WithContext(ctx), worker.ID)
	if err != nil {
		return nil, Internal("failed to load worker services", err)
	}
	if len(serviceIDs) == 0 {
		return bookings, nil
	}

	err = q.withRelations(ctx).
		Where("service_id IN ? AND worker_id = ?", serviceIDs, worker.ID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, Internal("failed to list worker bookings", err)
	}
	return bookings, nil
}

// ListOpenForWorker returns unassigned pending bookings the worker could claim.
func (q *BookingQueryService) ListOpenForWorker(ctx context.Context, worker *models.Worker) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if worker == nil {
		return bookings, nil
	}

	serviceIDs, err := workerServiceIDs(q.db.WithContext(ctx), worker.ID)
	if err != nil {
		return nil, Internal("failed to load worker services", err)
	}
	if len(serviceIDs) == 0 {
		return bookings, nil
	}

	err = q.withRelations(ctx).
		Where("service_id IN ? AND worker_id IS NULL AND status = ?", serviceIDs, models.BookingStatusPending).
		Order("scheduled_at ASC, id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, Internal("failed to list open bookings", err)
	}
	return bookings, nil
}

func (q *BookingQueryService) ListAll(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if err := q.withRelations(ctx).Order("created_at DESC, id DESC").Find(&bookings).Error; err != nil {
		return nil, Internal("failed to list bookings", err)
	}
	return bookings, nil
}

func (q *BookingQueryService) History(ctx context.Context, bookingID uint) ([]models.BookingStatusEvent, error) {
	events := []models.BookingStatusEvent{}
	err := q.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, Internal("failed to load booking history", err)
	}
	return events, nil
}

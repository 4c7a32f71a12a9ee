package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

// LineItem is one requested service within a booking request.
type LineItem struct {
	ServiceID            uint
	ServiceSubcategoryID uint
	Quantity             int
}

// BookingRequest is a customer request that expands to one booking per line
// item. Quantity applies to every line item that does not set its own.
type BookingRequest struct {
	CustomerID          uint
	CustomerName        string
	CustomerEmail       string
	CustomerPhone       string
	ServiceAddress      string
	SpecialInstructions *string
	ShiftType           string
	ScheduledAt         string
	Quantity            int
	Services            []LineItem
	WorkerID            *uint
	PaymentMethod       string
}

type BatchSummary struct {
	TotalBookings int             `json:"total_bookings"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type BookingService struct {
	db       *gorm.DB
	pricing  PricingCalculator
	schedule *ScheduleNormalizer
	notifier Notifier
	metrics  *BookingMetrics
}

func NewBookingService(db *gorm.DB, pricing PricingCalculator, schedule *ScheduleNormalizer, notifier Notifier, metrics *BookingMetrics) *BookingService {
	return &BookingService{
		db:       db,
		pricing:  pricing,
		schedule: schedule,
		notifier: orNop(notifier),
		metrics:  metrics,
	}
}

// CreateBookings creates one pending booking per line item. Either all rows
// are committed or none are.
func (s *BookingService) CreateBookings(ctx context.Context, req BookingRequest) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		bookings, err = s.createInTx(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, bookings)
	return bookings, nil
}

// CreateBatchBooking creates every request inside a single transaction.
func (s *BookingService) CreateBatchBooking(ctx context.Context, reqs []BookingRequest) ([]models.Booking, error) {
	if len(reqs) == 0 {
		return nil, NewValidationError("bookings", "at least one booking is required")
	}

	var all []models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, req := range reqs {
			created, err := s.createInTx(tx, req)
			if err != nil {
				return atPath(err, fmt.Sprintf("bookings.%d", i))
			}
			all = append(all, created...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, all)
	return all, nil
}

// CalculateBatchSummary totals a set of created bookings.
func CalculateBatchSummary(bookings []models.Booking) BatchSummary {
	summary := BatchSummary{TotalAmount: decimal.Zero}
	for _, b := range bookings {
		summary.TotalBookings++
		summary.TotalQuantity += b.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(b.TotalAmount)
	}
	summary.TotalAmount = summary.TotalAmount.Round(2)
	return summary
}

func (s *BookingService) createInTx(tx *gorm.DB, req BookingRequest) ([]models.Booking, error) {
	if len(req.Services) == 0 {
		return nil, NewValidationError("services", "at least one service is required")
	}
	if req.CustomerID == 0 {
		return nil, NewValidationError("customer_id", "is required")
	}

	exists, err := userExists(tx, req.CustomerID)
	if err != nil {
		return nil, Internal("failed to look up customer", err)
	}
	if !exists {
		return nil, NewValidationError("customer_id", "selected customer does not exist")
	}

	if req.WorkerID != nil {
		if _, err := findWorker(tx, *req.WorkerID); err != nil {
			return nil, err
		}
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.DefaultPaymentMethod
	}

	bookings := make([]models.Booking, 0, len(req.Services))
	for i, item := range req.Services {
		path := fmt.Sprintf("services.%d", i)

		booking, sub, err := s.buildBooking(tx, req, item)
		if err != nil {
			return nil, atPath(err, path)
		}
		if err := tx.Omit("Customer", "Worker", "Service", "ServiceSubcategory").Create(booking).Error; err != nil {
			return nil, atPath(writeError("failed to create booking", err), path)
		}
		booking.ServiceSubcategory = sub
		bookings = append(bookings, *booking)
	}
	return bookings, nil
}

// buildBooking resolves the price, normalizes shift and schedule, and prices
// the line item. It does not write.
func (s *BookingService) buildBooking(tx *gorm.DB, req BookingRequest, item LineItem) (*models.Booking, *models.ServiceSubcategory, error) {
	sub, err := findSubcategory(tx, item.ServiceSubcategoryID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := findService(tx, item.ServiceID); err != nil {
		return nil, nil, err
	}
	if sub.ServiceID != item.ServiceID {
		return nil, nil, NewValidationError("service_subcategory_id", "subcategory does not belong to the selected service")
	}

	shift, err := NormalizeShiftType(req.ShiftType)
	if err != nil {
		verr := NewValidationError("shift_type", "must be one of: day, night, flexible")
		verr.Err = err
		return nil, nil, verr
	}

	scheduledAt, err := s.schedule.Future(req.ScheduledAt)
	if err != nil {
		return nil, nil, err
	}

	quantity := req.Quantity
	if item.Quantity > 0 {
		quantity = item.Quantity
	}
	terms, err := s.pricing.ComputeTerms(sub.BasePrice, quantity, shift)
	if err != nil {
		return nil, nil, NewValidationError("quantity", err.Error())
	}

	return &models.Booking{
		CustomerID:           req.CustomerID,
		WorkerID:             req.WorkerID,
		CustomerName:         req.CustomerName,
		CustomerEmail:        req.CustomerEmail,
		CustomerPhone:        req.CustomerPhone,
		ServiceAddress:       req.ServiceAddress,
		SpecialInstructions:  req.SpecialInstructions,
		ServiceID:            item.ServiceID,
		ServiceSubcategoryID: sub.ID,
		Quantity:             quantity,
		UnitPrice:            terms.UnitPrice,
		SubtotalAmount:       terms.Subtotal,
		ShiftType:            shift,
		ShiftChargePercent:   terms.ShiftChargePercent,
		TotalAmount:          terms.Total,
		PaymentMethod:        req.PaymentMethod,
		Status:               models.BookingStatusPending,
		ScheduledAt:          scheduledAt,
	}, sub, nil
}

func (s *BookingService) afterCreate(ctx context.Context, bookings []models.Booking) {
	now := time.Now().UTC()
	for _, b := range bookings {
		s.metrics.ObserveCreated(b)
		s.notifier.Notify(ctx, BookingEvent{
			Type:       EventBookingCreated,
			Booking:    b,
			ToStatus:   b.Status,
			ActorID:    b.CustomerID,
			OccurredAt: now,
		})
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"count": len(bookings),
	}).Info("bookings created")
}

// writeError classifies a failed insert or update.
func writeError(message string, err error) error {
	switch KindOf(err) {
	case KindNotFound:
		return &Error{Kind: KindNotFound, Message: "referenced record not found", Err: err}
	case KindConflict:
		return &Error{Kind: KindConflict, Message: message, Err: err}
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(message, err)
}

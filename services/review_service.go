package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

type ReviewInput struct {
	BookingID uint
	Rating    int
	Comment   *string
}

// WorkerReviews is a worker's public rating summary.
type WorkerReviews struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating decimal.Decimal `json:"average_rating"`
	TotalReviews  int             `json:"total_reviews"`
}

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Create records the customer's review of a paid booking. The reviewed
// worker is the one assigned to the booking.
func (s *ReviewService) Create(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error) {
	if !actor.Role.Can(role.ActionReviewBooking) {
		return nil, Forbidden("only customers can review bookings")
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, NewValidationError("rating", "rating must be between 1 and 5")
	}

	db := s.db.WithContext(ctx)
	var booking models.Booking
	if err := db.First(&booking, in.BookingID).Error; err != nil {
		return nil, lookupError(err, "booking %d not found", in.BookingID)
	}
	if booking.CustomerID != actor.UserID {
		return nil, Forbidden("you can only review your own bookings")
	}
	if booking.Status != models.BookingStatusPaid {
		return nil, Precondition("only paid bookings can be reviewed")
	}
	if booking.WorkerID == nil {
		return nil, Precondition("booking %d has no assigned worker", booking.ID)
	}

	var existing int64
	if err := db.Model(&models.Review{}).Where("booking_id = ?", booking.ID).Count(&existing).Error; err != nil {
		return nil, Internal("failed to check existing review", err)
	}
	if existing > 0 {
		return nil, Conflict("booking %d has already been reviewed", booking.ID)
	}

	review := models.Review{
		BookingID:  booking.ID,
		CustomerID: actor.UserID,
		WorkerID:   *booking.WorkerID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := db.Create(&review).Error; err != nil {
		// the unique index catches a concurrent duplicate
		return nil, writeError("booking has already been reviewed", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"worker_id":  review.WorkerID,
		"rating":     review.Rating,
	}).Info("review recorded")

	return s.ForBooking(ctx, booking.ID)
}

// ForBooking returns the review of a booking with its customer, worker and
// booking loaded.
func (s *ReviewService) ForBooking(ctx context.Context, bookingID uint) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Worker").
		Preload("Booking").
		Where("booking_id = ?", bookingID).
		First(&review).Error
	if err != nil {
		return nil, lookupError(err, "review not found for booking %d", bookingID)
	}
	return &review, nil
}

// ForWorker lists a worker's reviews, newest first, with the average rating
// rounded to two places. Customer contact details are not loaded.
func (s *ReviewService) ForWorker(ctx context.Context, workerID uint) (*WorkerReviews, error) {
	db := s.db.WithContext(ctx)
	if _, err := findWorker(db, workerID); err != nil {
		return nil, err
	}

	reviews := []models.Review{}
	if err := db.Where("worker_id = ?", workerID).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, Internal("failed to list worker reviews", err)
	}

	out := &WorkerReviews{Reviews: reviews, TotalReviews: len(reviews), AverageRating: decimal.Zero}
	if len(reviews) == 0 {
		return out, nil
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	out.AverageRating = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
	return out, nil
}

package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/service-booking/models"
	"gorm.io/gorm"
)

// DashboardStats summarizes bookings and collected payments for staff.
type DashboardStats struct {
	TotalBookings  int64                          `json:"total_bookings"`
	TodayBookings  int64                          `json:"today_bookings"`
	ByStatus       map[models.BookingStatus]int64 `json:"by_status"`
	OpenUnassigned int64                          `json:"open_unassigned"`
	BookedAmount   decimal.Decimal                `json:"booked_amount"`
	Revenue        decimal.Decimal                `json:"revenue"`
	TodayRevenue   decimal.Decimal                `json:"today_revenue"`
}

type BookingStatsService struct {
	db *gorm.DB
}

func NewBookingStatsService(db *gorm.DB) *BookingStatsService {
	return &BookingStatsService{db: db}
}

// Dashboard computes the stats. "Today" is the calendar day of now in now's
// location. Booked amount excludes cancelled bookings; revenue counts only
// completed payment transactions.
func (s *BookingStatsService) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UTC()
	dayEnd := dayStart.Add(24 * time.Hour)

	stats := &DashboardStats{ByStatus: map[models.BookingStatus]int64{}}
	for _, st := range []models.BookingStatus{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusPaid,
		models.BookingStatusCancelled,
	} {
		stats.ByStatus[st] = 0
	}

	var rows []struct {
		Status models.BookingStatus
		Count  int64
	}
	if err := db.Model(&models.Booking{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, Internal("failed to count bookings", err)
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.TotalBookings += r.Count
	}

	if err := db.Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Count(&stats.TodayBookings).Error; err != nil {
		return nil, Internal("failed to count today's bookings", err)
	}
	if err := db.Model(&models.Booking{}).
		Where("status = ? AND worker_id IS NULL", models.BookingStatusPending).
		Count(&stats.OpenUnassigned).Error; err != nil {
		return nil, Internal("failed to count open bookings", err)
	}

	var err error
	if stats.BookedAmount, err = sumColumn(db.Model(&models.Booking{}).
		Where("status <> ?", models.BookingStatusCancelled), "total_amount"); err != nil {
		return nil, Internal("failed to sum booked amount", err)
	}
	if stats.Revenue, err = sumColumn(db.Model(&models.PaymentTransaction{}).
		Where("status = ?", models.TransactionStatusCompleted), "amount"); err != nil {
		return nil, Internal("failed to sum revenue", err)
	}
	if stats.TodayRevenue, err = sumColumn(db.Model(&models.PaymentTransaction{}).
		Where("status = ? AND processed_at >= ? AND processed_at < ?", models.TransactionStatusCompleted, dayStart, dayEnd), "amount"); err != nil {
		return nil, Internal("failed to sum today's revenue", err)
	}
	return stats, nil
}

func sumColumn(q *gorm.DB, column string) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal
	}
	if err := q.Select("COALESCE(SUM(" + column + "), 0) AS total").Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out.Total.Round(2), nil
}

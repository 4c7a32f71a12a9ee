package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of the worker who served a paid booking.
// There is at most one per booking.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookingID  uint      `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking    *Booking  `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   *User     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	WorkerID   uint      `gorm:"not null;index" json:"worker_id"`
	Worker     *Worker   `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    *string   `gorm:"column:review;type:text" json:"review"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

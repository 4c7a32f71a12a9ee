package models

import "time"

// BookingStatusEvent records one applied status transition.
type BookingStatusEvent struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	BookingID  uint          `gorm:"not null;index" json:"booking_id"`
	FromStatus BookingStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   BookingStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	WorkerID   *uint         `json:"worker_id,omitempty"`
	ChangedBy  uint          `gorm:"not null" json:"changed_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

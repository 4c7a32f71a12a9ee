package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeCashSubmission = "cash_submission"
	TransactionTypeOnlinePayment  = "online_payment"

	// TransactionTypeCommission is a worker settling the platform's share of a paid booking.
	TransactionTypeCommission = "commission_payment"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRejected  = "rejected"
)

type PaymentTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BookingID       uint            `gorm:"not null;index" json:"booking_id"`
	Booking         *Booking        `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	WorkerID        *uint           `gorm:"index" json:"worker_id,omitempty"`
	Worker          *Worker         `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	Reference       string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	TransactionType string          `gorm:"type:varchar(30);not null" json:"transaction_type"`
	PaymentMethod   string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	GatewayRef      string          `gorm:"type:varchar(100)" json:"gateway_ref,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	ProcessedBy     *uint           `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

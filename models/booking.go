package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus reports whether s names one of the four lifecycle states.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusPaid, BookingStatusCancelled:
		return st, true
	}
	return "", false
}

type ShiftType string

const (
	ShiftDay      ShiftType = "day"
	ShiftNight    ShiftType = "night"
	ShiftFlexible ShiftType = "flexible"
)

const DefaultPaymentMethod = "cash"

// Booking is one service appointment. The commercial terms (quantity, unit
// price, subtotal, shift charge, total) are frozen when the row is inserted.
type Booking struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	CustomerID uint    `gorm:"not null;index" json:"customer_id"`
	Customer   *User   `gorm:"foreignKey:CustomerID" json:"-"`
	WorkerID   *uint   `gorm:"index" json:"worker_id"`
	Worker     *Worker `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`

	CustomerName        string  `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail       string  `gorm:"type:varchar(255);not null" json:"customer_email"`
	CustomerPhone       string  `gorm:"type:varchar(20);not null" json:"customer_phone"`
	ServiceAddress      string  `gorm:"type:text;not null" json:"service_address"`
	SpecialInstructions *string `gorm:"type:text" json:"special_instructions"`

	ServiceID            uint                `gorm:"not null;index" json:"service_id"`
	Service              *Service            `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	ServiceSubcategoryID uint                `gorm:"not null;index" json:"service_subcategory_id"`
	ServiceSubcategory   *ServiceSubcategory `gorm:"foreignKey:ServiceSubcategoryID" json:"service_subcategory,omitempty"`

	Quantity           int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	SubtotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal_amount"`
	ShiftType          ShiftType       `gorm:"type:varchar(20);not null;default:'day'" json:"shift_type"`
	ShiftChargePercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"shift_charge_percent"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`

	PaymentMethod string        `gorm:"type:varchar(50);not null;default:'cash'" json:"payment_method"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ScheduledAt   time.Time     `gorm:"not null" json:"scheduled_at"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ShiftChargeAmount is the surcharge part of the total.
func (b *Booking) ShiftChargeAmount() decimal.Decimal {
	return b.TotalAmount.Sub(b.SubtotalAmount)
}

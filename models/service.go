package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	Name          string               `gorm:"type:varchar(255);not null" json:"name"`
	Description   string               `gorm:"type:text" json:"description,omitempty"`
	IsActive      bool                 `gorm:"not null;default:true" json:"is_active"`
	Subcategories []ServiceSubcategory `gorm:"foreignKey:ServiceID" json:"subcategories,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

const (
	UnitTypeFixed  = "fixed"
	UnitTypeHourly = "hourly"
)

type ServiceSubcategory struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ServiceID uint            `gorm:"not null;index" json:"service_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	BasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	UnitType  string          `gorm:"type:varchar(20);not null;default:'fixed'" json:"unit_type"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

package models

import "time"

type Worker struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	Services  []Service `gorm:"many2many:service_workers;" json:"services,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkerService is the service_workers pivot row.
type WorkerService struct {
	WorkerID  uint `gorm:"primaryKey"`
	ServiceID uint `gorm:"primaryKey"`
}

func (WorkerService) TableName() string {
	return "service_workers"
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/service-booking/models"
	"gorm.io/gorm"
)

// lookupError maps a failed single-row read to NotFound or Internal.
func lookupError(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(format, args...)
	}
	return Internal(fmt.Sprintf(format, args...), err)
}

func findSubcategory(tx *gorm.DB, id uint) (*models.ServiceSubcategory, error) {
	var sub models.ServiceSubcategory
	if err := tx.First(&sub, id).Error; err != nil {
		return nil, lookupError(err, "service subcategory %d not found", id)
	}
	return &sub, nil
}

func findService(tx *gorm.DB, id uint) (*models.Service, error) {
	var svc models.Service
	if err := tx.First(&svc, id).Error; err != nil {
		return nil, lookupError(err, "service %d not found", id)
	}
	return &svc, nil
}

func findWorker(tx *gorm.DB, id uint) (*models.Worker, error) {
	var worker models.Worker
	if err := tx.First(&worker, id).Error; err != nil {
		return nil, lookupError(err, "worker %d not found", id)
	}
	return &worker, nil
}

func userExists(tx *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func workerOffersService(tx *gorm.DB, workerID, serviceID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.WorkerService{}).
		Where("worker_id = ? AND service_id = ?", workerID, serviceID).
		Count(&count).Error
	return count > 0, err
}

func workerServiceIDs(tx *gorm.DB, workerID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.WorkerService{}).
		Where("worker_id = ?", workerID).
		Pluck("service_id", &ids).Error
	return ids, err
}

// CatalogService serves read-only views of the service catalog. Catalog
// rows are maintained by an external admin tool.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListServices returns active services with their subcategories, by name.
func (s *CatalogService) ListServices(ctx context.Context) ([]models.Service, error) {
	list := []models.Service{}
	err := s.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("base_price ASC, id ASC") }).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&list).Error
	if err != nil {
		return nil, Internal("failed to list services", err)
	}
	return list, nil
}

func (s *CatalogService) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	err := s.db.WithContext(ctx).Preload("Subcategories").First(&svc, id).Error
	if err != nil {
		return nil, lookupError(err, "service %d not found", id)
	}
	return &svc, nil
}

// WorkersForService lists active workers offering the service, for staff
// choosing whom to assign.
func (s *CatalogService) WorkersForService(ctx context.Context, serviceID uint) ([]models.Worker, error) {
	if _, err := findService(s.db.WithContext(ctx), serviceID); err != nil {
		return nil, err
	}
	workers := []models.Worker{}
	err := s.db.WithContext(ctx).
		Joins("JOIN service_workers ON service_workers.worker_id = workers.id").
		Where("service_workers.service_id = ? AND workers.is_active = ?", serviceID, true).
		Order("workers.name ASC").
		Find(&workers).Error
	if err != nil {
		return nil, Internal("failed to list workers for service", err)
	}
	return workers, nil
}

package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

// WorkerDirectory resolves the worker profile behind an authenticated user.
type WorkerDirectory struct {
	db *gorm.DB
}

func NewWorkerDirectory(db *gorm.DB) *WorkerDirectory {
	return &WorkerDirectory{db: db}
}

// ResolveForUser finds the worker linked to userID. Failing that, an unlinked
// worker with the same email is linked to the user and returned. Linking is
// idempotent. A nil worker with nil error means there is no profile.
func (d *WorkerDirectory) ResolveForUser(ctx context.Context, userID uint, email string) (*models.Worker, error) {
	db := d.db.WithContext(ctx)

	worker, err := d.byUserID(db, userID)
	if err != nil || worker != nil {
		return worker, err
	}
	if email == "" {
		return nil, nil
	}

	var candidate models.Worker
	err = db.Where("email = ? AND user_id IS NULL", email).First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Internal("failed to look up worker by email", err)
	}

	res := db.Model(&models.Worker{}).
		Where("id = ? AND user_id IS NULL", candidate.ID).
		Update("user_id", userID)
	if res.Error != nil {
		return nil, Internal("failed to link worker profile", res.Error)
	}
	if res.RowsAffected == 0 {
		// linked by a concurrent request
		return d.byUserID(db, userID)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"worker_id": candidate.ID,
		"user_id":   userID,
	}).Info("linked worker profile to user by email")

	candidate.UserID = &userID
	return &candidate, nil
}

func (d *WorkerDirectory) byUserID(db *gorm.DB, userID uint) (*models.Worker, error) {
	var worker models.Worker
	err := db.Where("user_id = ?", userID).First(&worker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Internal("failed to look up worker", err)
	}
	return &worker, nil
}

func (d *WorkerDirectory) ServiceIDs(ctx context.Context, workerID uint) ([]uint, error) {
	return workerServiceIDs(d.db.WithContext(ctx), workerID)
}

package services

import (
	"context"
	"slices"

	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
)

// WorkerCanAccess reports whether a worker offering serviceIDs may see b:
// it is assigned to them, or it is unassigned within one of their services.
// This is the same boundary the status machine applies to worker actions.
func WorkerCanAccess(workerID uint, serviceIDs []uint, b *models.Booking) bool {
	if b.WorkerID != nil {
		return *b.WorkerID == workerID
	}
	return slices.Contains(serviceIDs, b.ServiceID)
}

// CanView decides read access to a booking and everything hanging off it
// (history, payments, invoice, review).
func (q *BookingQueryService) CanView(ctx context.Context, actor Actor, b *models.Booking) (bool, error) {
	switch {
	case actor.Role.Can(role.ActionViewAnyBooking):
		return true, nil
	case actor.UserID != 0 && b.CustomerID == actor.UserID:
		return true, nil
	case actor.Role == role.Worker && actor.Worker != nil:
		if b.WorkerID != nil {
			return *b.WorkerID == actor.Worker.ID, nil
		}
		serviceIDs, err := workerServiceIDs(q.db.WithContext(ctx), actor.Worker.ID)
		if err != nil {
			return false, Internal("failed to load worker services", err)
		}
		return WorkerCanAccess(actor.Worker.ID, serviceIDs, b), nil
	}
	return false, nil
}

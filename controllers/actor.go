package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/middlewares"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

// resolveActor builds the caller from the auth context, loading the worker
// profile for worker tokens.
func resolveActor(c *gin.Context, workers *services.WorkerDirectory) (services.Actor, error) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		return services.Actor{}, &services.Error{Kind: services.KindUnauthenticated, Message: "unauthenticated"}
	}

	actor := services.Actor{
		UserID: userID,
		Role:   middlewares.CurrentRole(c),
		Email:  c.GetString(middlewares.ContextEmail),
	}
	if actor.Role == role.Worker {
		worker, err := workers.ResolveForUser(c.Request.Context(), userID, actor.Email)
		if err != nil {
			return services.Actor{}, err
		}
		actor.Worker = worker
	}
	return actor, nil
}

// authorizeView responds and returns false when the caller may not read booking.
func authorizeView(c *gin.Context, workers *services.WorkerDirectory, queries *services.BookingQueryService, booking *models.Booking) bool {
	actor, err := resolveActor(c, workers)
	if err != nil {
		respondServiceError(c, err)
		return false
	}
	ok, err := queries.CanView(c.Request.Context(), actor, booking)
	if err != nil {
		respondServiceError(c, err)
		return false
	}
	if !ok {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return false
	}
	return true
}

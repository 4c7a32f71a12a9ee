package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type AdminController struct {
	Stats    *services.BookingStatsService
	Location *time.Location
}

// NewAdminController reports "today" in loc, the operating timezone.
func NewAdminController(stats *services.BookingStatsService, loc *time.Location) *AdminController {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminController{Stats: stats, Location: loc}
}

// GetDashboardStats -> GET /admin/dashboard
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Stats.Dashboard(c.Request.Context(), time.Now().In(ac.Location))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

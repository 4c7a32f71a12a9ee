package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type CatalogController struct {
	Catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

// GetAllServices -> GET /services
func (cc *CatalogController) GetAllServices(c *gin.Context) {
	list, err := cc.Catalog.ListServices(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of services", list)
}

// GetService -> GET /services/:id
func (cc *CatalogController) GetService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := cc.Catalog.GetService(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Service retrieved successfully", svc)
}

// GetServiceWorkers -> GET /services/:id/workers (staff)
func (cc *CatalogController) GetServiceWorkers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	workers, err := cc.Catalog.WorkersForService(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Workers retrieved successfully", workers)
}

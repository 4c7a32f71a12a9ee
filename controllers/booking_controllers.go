package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/middlewares"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type BookingController struct {
	Bookings *services.BookingService
	Status   *services.BookingStatusMachine
	Queries  *services.BookingQueryService
	Workers  *services.WorkerDirectory
}

func NewBookingController(bookings *services.BookingService, status *services.BookingStatusMachine, queries *services.BookingQueryService, workers *services.WorkerDirectory) *BookingController {
	return &BookingController{
		Bookings: bookings,
		Status:   status,
		Queries:  queries,
		Workers:  workers,
	}
}

type lineItemRequest struct {
	ServiceID            uint `json:"service_id" binding:"required"`
	ServiceSubcategoryID uint `json:"service_subcategory_id" binding:"required"`
	Quantity             int  `json:"quantity" binding:"omitempty,min=1"`
}

// user_id and customer_id are accepted as aliases.
type bookingRequest struct {
	UserID              uint              `json:"user_id" binding:"required_without=CustomerID"`
	CustomerID          uint              `json:"customer_id"`
	CustomerName        string            `json:"customer_name" binding:"required,max=255"`
	CustomerEmail       string            `json:"customer_email" binding:"required,email,max=255"`
	CustomerPhone       string            `json:"customer_phone" binding:"required,max=20,phone"`
	ServiceAddress      string            `json:"service_address" binding:"required"`
	SpecialInstructions *string           `json:"special_instructions"`
	ShiftType           string            `json:"shift_type" binding:"required,oneof=day night flexible"`
	ScheduledAt         string            `json:"scheduled_at" binding:"required"`
	Quantity            int               `json:"quantity" binding:"omitempty,min=1"`
	Services            []lineItemRequest `json:"services" binding:"required,min=1,dive"`
	WorkerID            *uint             `json:"worker_id"`
	PaymentMethod       string            `json:"payment_method" binding:"omitempty,max=50"`
}

type batchBookingRequest struct {
	Bookings []bookingRequest `json:"bookings" binding:"required,min=1,dive"`
}

func (r bookingRequest) toService() services.BookingRequest {
	customerID := r.CustomerID
	if customerID == 0 {
		customerID = r.UserID
	}

	items := make([]services.LineItem, len(r.Services))
	for i, s := range r.Services {
		items[i] = services.LineItem{
			ServiceID:            s.ServiceID,
			ServiceSubcategoryID: s.ServiceSubcategoryID,
			Quantity:             s.Quantity,
		}
	}

	return services.BookingRequest{
		CustomerID:          customerID,
		CustomerName:        r.CustomerName,
		CustomerEmail:       r.CustomerEmail,
		CustomerPhone:       r.CustomerPhone,
		ServiceAddress:      r.ServiceAddress,
		SpecialInstructions: r.SpecialInstructions,
		ShiftType:           r.ShiftType,
		ScheduledAt:         r.ScheduledAt,
		Quantity:            r.Quantity,
		Services:            items,
		WorkerID:            r.WorkerID,
		PaymentMethod:       r.PaymentMethod,
	}
}

// checkCreator limits what an authenticated caller may book: customers only
// for themselves, and only staff may pre-assign a worker.
func checkCreator(c *gin.Context, req services.BookingRequest) error {
	r := middlewares.CurrentRole(c)
	if req.WorkerID != nil && !r.Can(role.ActionAssignWorker) {
		return services.Forbidden("only staff can assign a worker when booking")
	}
	if r == role.Customer {
		if userID, _ := middlewares.CurrentUserID(c); userID != req.CustomerID {
			return services.Forbidden("you can only book for your own account")
		}
	}
	return nil
}

func bookingsPayload(bookings []models.Booking) gin.H {
	summary := services.CalculateBatchSummary(bookings)
	return gin.H{
		"bookings":       bookings,
		"total_bookings": summary.TotalBookings,
		"total_amount":   summary.TotalAmount,
	}
}

// CreateBooking -> POST /booking
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := req.toService()
	if err := checkCreator(c, in); err != nil {
		respondServiceError(c, err)
		return
	}

	bookings, err := bc.Bookings.CreateBookings(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Bookings created successfully", bookingsPayload(bookings))
}

// CreateBatchBooking -> POST /booking/batch
func (bc *BookingController) CreateBatchBooking(c *gin.Context) {
	var req batchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	batch := make([]services.BookingRequest, len(req.Bookings))
	for i, b := range req.Bookings {
		batch[i] = b.toService()
		if err := checkCreator(c, batch[i]); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	bookings, err := bc.Bookings.CreateBatchBooking(c.Request.Context(), batch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	payload := bookingsPayload(bookings)
	payload["summary"] = services.CalculateBatchSummary(bookings)
	utils.RespondJSON(c, http.StatusCreated, "Batch bookings created successfully", payload)
}

type statusRequest struct {
	Status   string `json:"status" binding:"required,oneof=paid confirmed cancelled"`
	WorkerID *uint  `json:"worker_id"`
}

// UpdateBookingStatus -> PATCH /booking/:id/status
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor, err := resolveActor(c, bc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	booking, err := bc.Status.Transition(c.Request.Context(), actor, id, services.StatusChange{
		Status:   req.Status,
		WorkerID: req.WorkerID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Booking status updated successfully", booking)
}

// GetBooking -> GET /booking/:id
func (bc *BookingController) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := bc.Queries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !authorizeView(c, bc.Workers, bc.Queries, booking) {
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// GetBookingHistory -> GET /booking/:id/history
func (bc *BookingController) GetBookingHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := bc.Queries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !authorizeView(c, bc.Workers, bc.Queries, booking) {
		return
	}

	events, err := bc.Queries.History(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking history retrieved successfully", events)
}

// GetCustomerBookings -> GET /booking/customer/:id
func (bc *BookingController) GetCustomerBookings(c *gin.Context) {
	customerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	userID, _ := middlewares.CurrentUserID(c)
	if customerID != userID && !middlewares.CurrentRole(c).Can(role.ActionListAllBookings) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	bookings, err := bc.Queries.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer bookings retrieved successfully", bookings)
}

// GetWorkerJobs -> GET /booking/worker/jobs
func (bc *BookingController) GetWorkerJobs(c *gin.Context) {
	bc.workerList(c, bc.Queries.ListForWorker, "Worker jobs retrieved successfully")
}

// GetOpenJobs -> GET /booking/worker/open
func (bc *BookingController) GetOpenJobs(c *gin.Context) {
	bc.workerList(c, bc.Queries.ListOpenForWorker, "Open jobs retrieved successfully")
}

func (bc *BookingController) workerList(c *gin.Context, list func(context.Context, *models.Worker) ([]models.Booking, error), message string) {
	actor, err := resolveActor(c, bc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if actor.Worker == nil {
		utils.RespondJSON(c, http.StatusOK, "No worker profile found", []models.Booking{})
		return
	}

	bookings, err := list(c.Request.Context(), actor.Worker)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, bookings)
}

// GetAllBookings -> GET /booking
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	bookings, err := bc.Queries.ListAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All bookings", bookings)
}

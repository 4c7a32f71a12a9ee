package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type PaymentController struct {
	Payments    *services.PaymentService
	Commissions *services.CommissionService
	Queries     *services.BookingQueryService
	Workers     *services.WorkerDirectory
}

func NewPaymentController(payments *services.PaymentService, commissions *services.CommissionService, queries *services.BookingQueryService, workers *services.WorkerDirectory) *PaymentController {
	return &PaymentController{Payments: payments, Commissions: commissions, Queries: queries, Workers: workers}
}

type payRequest struct {
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=50"`
}

// PayBooking -> POST /booking/:id/pay
func (pc *PaymentController) PayBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req payRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	actor, err := resolveActor(c, pc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	txn, err := pc.Payments.PayBooking(c.Request.Context(), actor, id, req.PaymentMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if txn.Status == models.TransactionStatusRejected {
		c.JSON(http.StatusPaymentRequired, utils.JSONResponse{
			Status:  false,
			Message: "Payment was declined",
			Data:    txn,
		})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment recorded successfully", txn)
}

// GetTransactions -> GET /booking/:id/payments
func (pc *PaymentController) GetTransactions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := pc.Queries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !authorizeView(c, pc.Workers, pc.Queries, booking) {
		return
	}

	txns, err := pc.Payments.Transactions(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment transactions retrieved successfully", txns)
}

type commissionRequest struct {
	BookingID     uint   `json:"booking_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=50"`
	TransactionID string `json:"transaction_id" binding:"omitempty,max=100"`
	PaymentProof  string `json:"payment_proof" binding:"omitempty,max=1000"`
	Notes         string `json:"notes" binding:"omitempty,max=500"`
}

// SubmitCommission -> POST /payments/commission (worker)
func (pc *PaymentController) SubmitCommission(c *gin.Context) {
	var req commissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor, err := resolveActor(c, pc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	txn, err := pc.Commissions.Submit(c.Request.Context(), actor, services.CommissionSubmission{
		BookingID:     req.BookingID,
		PaymentMethod: req.PaymentMethod,
		GatewayRef:    req.TransactionID,
		PaymentProof:  req.PaymentProof,
		Notes:         req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Commission payment submitted successfully", txn)
}

// GetPendingCommissions -> GET /payments/commission/pending (admin)
func (pc *PaymentController) GetPendingCommissions(c *gin.Context) {
	txns, err := pc.Commissions.Pending(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending commission payments retrieved successfully", txns)
}

type processCommissionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Notes  string `json:"notes" binding:"omitempty,max=500"`
}

// ProcessCommission -> PATCH /payments/commission/:id (admin)
func (pc *PaymentController) ProcessCommission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req processCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor, err := resolveActor(c, pc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	txn, err := pc.Commissions.Process(c.Request.Context(), actor, id, req.Action, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Commission payment "+req.Action+"d successfully", txn)
}

// GetWorkerTransactions -> GET /payments/worker
func (pc *PaymentController) GetWorkerTransactions(c *gin.Context) {
	actor, err := resolveActor(c, pc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if actor.Worker == nil {
		respondServiceError(c, &services.Error{Kind: services.KindNotFound, Message: services.ErrWorkerNotFound.Error(), Err: services.ErrWorkerNotFound})
		return
	}

	txns, err := pc.Commissions.ForWorker(c.Request.Context(), actor.Worker)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Worker transactions retrieved successfully", txns)
}

// GetAllTransactions -> GET /payments (staff)
func (pc *PaymentController) GetAllTransactions(c *gin.Context) {
	txns, err := pc.Commissions.All(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Transactions retrieved successfully", txns)
}

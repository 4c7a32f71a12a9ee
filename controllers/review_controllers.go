package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type ReviewController struct {
	Reviews *services.ReviewService
	Queries *services.BookingQueryService
	Workers *services.WorkerDirectory
}

func NewReviewController(reviews *services.ReviewService, queries *services.BookingQueryService, workers *services.WorkerDirectory) *ReviewController {
	return &ReviewController{Reviews: reviews, Queries: queries, Workers: workers}
}

type reviewRequest struct {
	BookingID uint    `json:"booking_id" binding:"required"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Review    *string `json:"review" binding:"omitempty,max=1000"`
}

// CreateReview -> POST /reviews
func (rc *ReviewController) CreateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor, err := resolveActor(c, rc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	review, err := rc.Reviews.Create(c.Request.Context(), actor, services.ReviewInput{
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Review,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Review submitted successfully", review)
}

// GetWorkerReviews -> GET /workers/:id/reviews
func (rc *ReviewController) GetWorkerReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	summary, err := rc.Reviews.ForWorker(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Worker reviews retrieved successfully", summary)
}

// GetBookingReview -> GET /booking/:id/review
func (rc *ReviewController) GetBookingReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := rc.Queries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !authorizeView(c, rc.Workers, rc.Queries, booking) {
		return
	}

	review, err := rc.Reviews.ForBooking(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Review retrieved successfully", review)
}

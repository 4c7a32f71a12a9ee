package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/service-booking/config"
	"github.com/yeremiapane/service-booking/controllers"
	"github.com/yeremiapane/service-booking/hub"
	"github.com/yeremiapane/service-booking/middlewares"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
	"gorm.io/gorm"
)

// Dependencies are the process-level collaborators the router wires into
// controllers. Nil fields fall back to in-process defaults.
type Dependencies struct {
	DB            *gorm.DB
	Config        *config.Config
	Hub           *hub.Hub
	Notifiers     []services.Notifier
	Registry      *prometheus.Registry
	OnlineGateway services.PaymentGateway
}

func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if err := utils.RegisterValidators(cfg.PhoneRegion); err != nil {
		return nil, err
	}
	middlewares.SetRevocationFailOpen(cfg.JWT.RevocationFailOpen)

	if deps.Hub == nil {
		deps.Hub = hub.New()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	schedule, err := services.NewScheduleNormalizer(cfg.Booking.LocalUTCOffsetHours, cfg.Booking.ScheduleTimezone)
	if err != nil {
		return nil, err
	}

	notifier := services.MultiNotifier(append([]services.Notifier{deps.Hub}, deps.Notifiers...))
	metrics := services.NewBookingMetrics(deps.Registry)
	pricing := services.NewPricingCalculator(cfg.Booking.NightShiftPercent)

	bookingSvc := services.NewBookingService(deps.DB, pricing, schedule, notifier, metrics)
	machine := services.NewBookingStatusMachine(deps.DB, notifier, metrics)
	queries := services.NewBookingQueryService(deps.DB)
	workers := services.NewWorkerDirectory(deps.DB)
	payments := services.NewPaymentService(deps.DB, machine, deps.OnlineGateway, notifier, metrics)
	catalog := services.NewCatalogService(deps.DB)
	stats := services.NewBookingStatsService(deps.DB)
	reviews := services.NewReviewService(deps.DB)
	commissions := services.NewCommissionService(deps.DB, cfg.Booking.CommissionPercent, metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigins))
	if cfg.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateBurst).RateLimit())
	}

	userCtrl := controllers.NewUserController(deps.DB)
	bookingCtrl := controllers.NewBookingController(bookingSvc, machine, queries, workers)
	paymentCtrl := controllers.NewPaymentController(payments, commissions, queries, workers)
	invoiceCtrl := controllers.NewInvoiceController(queries, workers, cfg.CurrencyCode)
	wsCtrl := controllers.NewWebSocketController(deps.Hub, workers)
	catalogCtrl := controllers.NewCatalogController(catalog)
	adminCtrl := controllers.NewAdminController(stats, schedule.Zone())
	reviewCtrl := controllers.NewReviewController(reviews, queries, workers)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	r.GET("/services", catalogCtrl.GetAllServices)
	r.GET("/services/:id", catalogCtrl.GetService)
	r.GET("/workers/:id/reviews", reviewCtrl.GetWorkerReviews)

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Booking creation accepts anonymous callers; a token narrows what the
	// caller may do.
	r.POST("/booking", middlewares.OptionalAuth(), bookingCtrl.CreateBooking)
	r.POST("/booking/batch", middlewares.OptionalAuth(), bookingCtrl.CreateBatchBooking)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.GET("/ws/bookings", wsCtrl.Subscribe)
		auth.GET("/services/:id/workers", middlewares.RequireCapability(role.ActionAssignWorker), catalogCtrl.GetServiceWorkers)
		auth.GET("/admin/dashboard", middlewares.RequireCapability(role.ActionListAllBookings), adminCtrl.GetDashboardStats)
		auth.POST("/reviews", reviewCtrl.CreateReview)

		booking := auth.Group("/booking")
		{
			booking.GET("", middlewares.RequireCapability(role.ActionListAllBookings), bookingCtrl.GetAllBookings)
			booking.GET("/worker/jobs", middlewares.RequireCapability(role.ActionListWorkerJobs), bookingCtrl.GetWorkerJobs)
			booking.GET("/worker/open", middlewares.RequireCapability(role.ActionListWorkerJobs), bookingCtrl.GetOpenJobs)
			booking.GET("/customer/:id", bookingCtrl.GetCustomerBookings)
			booking.GET("/:id", bookingCtrl.GetBooking)
			booking.GET("/:id/history", bookingCtrl.GetBookingHistory)
			booking.PATCH("/:id/status", bookingCtrl.UpdateBookingStatus)
			booking.POST("/:id/pay", paymentCtrl.PayBooking)
			booking.GET("/:id/payments", paymentCtrl.GetTransactions)
			booking.GET("/:id/invoice", invoiceCtrl.GetInvoice)
			booking.GET("/:id/review", reviewCtrl.GetBookingReview)
		}

		payment := auth.Group("/payments")
		{
			payment.GET("", middlewares.RequireCapability(role.ActionListAllTransactions), paymentCtrl.GetAllTransactions)
			payment.GET("/worker", middlewares.RequireCapability(role.ActionSubmitCommission), paymentCtrl.GetWorkerTransactions)
			payment.POST("/commission", paymentCtrl.SubmitCommission)
			payment.GET("/commission/pending", middlewares.RequireCapability(role.ActionProcessCommission), paymentCtrl.GetPendingCommissions)
			payment.PATCH("/commission/:id", paymentCtrl.ProcessCommission)
		}
	}

	return r, nil
}

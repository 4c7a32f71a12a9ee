package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/service-booking/database"
	"github.com/yeremiapane/service-booking/models"
	"github.com/yeremiapane/service-booking/role"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// setupTestDB opens a private in-memory database per test. One connection
// keeps the database alive and serializes transactions.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	customer, otherCustomer models.User
	admin, moderator        models.User
	workerUser, peerUser    models.User
	plumberUser             models.User
	cleaning, plumbing      models.Service
	deepClean, pipeFix      models.ServiceSubcategory
	worker, peer, plumber   models.Worker
}

func uintPtr(v uint) *uint { return &v }

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	var fx fixture

	users := []*models.User{&fx.customer, &fx.otherCustomer, &fx.admin, &fx.moderator, &fx.workerUser, &fx.peerUser, &fx.plumberUser}
	specs := []struct {
		name, email string
		role        role.Role
	}{
		{"Rahim", "rahim@example.com", role.Customer},
		{"Karim", "karim@example.com", role.Customer},
		{"Admin", "admin@example.com", role.Admin},
		{"Mod", "mod@example.com", role.Moderator},
		{"Worker One", "w1@example.com", role.Worker},
		{"Worker Two", "w2@example.com", role.Worker},
		{"Plumber", "plumber@example.com", role.Worker},
	}
	for i, s := range specs {
		*users[i] = models.User{Name: s.name, Email: s.email, Password: "x", Role: s.role.String()}
		require.NoError(t, db.Create(users[i]).Error)
	}

	fx.cleaning = models.Service{Name: "Cleaning", IsActive: true}
	fx.plumbing = models.Service{Name: "Plumbing", IsActive: true}
	require.NoError(t, db.Create(&fx.cleaning).Error)
	require.NoError(t, db.Create(&fx.plumbing).Error)

	fx.deepClean = models.ServiceSubcategory{ServiceID: fx.cleaning.ID, Name: "Deep clean", BasePrice: decimal.NewFromInt(500), UnitType: models.UnitTypeFixed}
	fx.pipeFix = models.ServiceSubcategory{ServiceID: fx.plumbing.ID, Name: "Pipe fix", BasePrice: decimal.RequireFromString("300.50"), UnitType: models.UnitTypeHourly}
	require.NoError(t, db.Create(&fx.deepClean).Error)
	require.NoError(t, db.Create(&fx.pipeFix).Error)

	fx.worker = models.Worker{UserID: uintPtr(fx.workerUser.ID), Name: "Worker One", Email: fx.workerUser.Email, IsActive: true}
	fx.peer = models.Worker{UserID: uintPtr(fx.peerUser.ID), Name: "Worker Two", Email: fx.peerUser.Email, IsActive: true}
	fx.plumber = models.Worker{UserID: uintPtr(fx.plumberUser.ID), Name: "Plumber", Email: fx.plumberUser.Email, IsActive: true}
	for _, w := range []*models.Worker{&fx.worker, &fx.peer, &fx.plumber} {
		require.NoError(t, db.Omit("Services").Create(w).Error)
	}

	for _, ws := range []models.WorkerService{
		{WorkerID: fx.worker.ID, ServiceID: fx.cleaning.ID},
		{WorkerID: fx.peer.ID, ServiceID: fx.cleaning.ID},
		{WorkerID: fx.plumber.ID, ServiceID: fx.plumbing.ID},
	} {
		require.NoError(t, db.Create(&ws).Error)
	}
	return fx
}

func newTestBookingService(t *testing.T, db *gorm.DB, notifier Notifier) *BookingService {
	t.Helper()
	schedule, err := NewScheduleNormalizer(6, "")
	require.NoError(t, err)
	schedule.Now = func() time.Time { return testNow }
	return NewBookingService(db, NewPricingCalculator(DefaultNightShiftPercent), schedule, notifier, nil)
}

func bookingRequest(fx fixture, shift string, items ...LineItem) BookingRequest {
	return BookingRequest{
		CustomerID:     fx.customer.ID,
		CustomerName:   "Rahim",
		CustomerEmail:  "rahim@example.com",
		CustomerPhone:  "01712345678",
		ServiceAddress: "House 12, Road 5, Dhanmondi, Dhaka",
		ShiftType:      shift,
		ScheduledAt:    "2026-03-10T09:30",
		Quantity:       1,
		Services:       items,
	}
}

// insertBooking writes a booking row directly in the given state.
func insertBooking(t *testing.T, db *gorm.DB, fx fixture, status models.BookingStatus, workerID *uint) models.Booking {
	t.Helper()
	return insertServiceBooking(t, db, fx, fx.deepClean, status, workerID)
}

func insertServiceBooking(t *testing.T, db *gorm.DB, fx fixture, sub models.ServiceSubcategory, status models.BookingStatus, workerID *uint) models.Booking {
	t.Helper()
	b := models.Booking{
		CustomerID:           fx.customer.ID,
		WorkerID:             workerID,
		CustomerName:         "Rahim",
		CustomerEmail:        "rahim@example.com",
		CustomerPhone:        "01712345678",
		ServiceAddress:       "Dhaka",
		ServiceID:            sub.ServiceID,
		ServiceSubcategoryID: sub.ID,
		Quantity:             2,
		UnitPrice:            decimal.NewFromInt(500),
		SubtotalAmount:       decimal.NewFromInt(1000),
		ShiftType:            models.ShiftNight,
		ShiftChargePercent:   decimal.NewFromInt(20),
		TotalAmount:          decimal.NewFromInt(1200),
		PaymentMethod:        models.DefaultPaymentMethod,
		Status:               status,
		ScheduledAt:          testNow.Add(48 * time.Hour),
	}
	require.NoError(t, db.Omit("Customer", "Worker", "Service", "ServiceSubcategory").Create(&b).Error)
	return b
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2))
}

func adminActor(fx fixture) Actor {
	return Actor{UserID: fx.admin.ID, Role: role.Admin}
}

func workerActor(u models.User, w *models.Worker) Actor {
	return Actor{UserID: u.ID, Role: role.Worker, Email: u.Email, Worker: w}
}

package controllers_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/service-booking/models"
)

func TestCreateBookingAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/booking", "", env.bookingBody(env.customer.ID, "night", 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out createdJSON
	resp := decode(t, w, &out)
	assert.True(t, resp.Status)
	require.Len(t, out.Bookings, 1)
	b := out.Bookings[0]
	assert.Equal(t, "pending", b.Status)
	assert.Equal(t, "night", b.ShiftType)
	assert.Equal(t, 500.0, b.UnitPrice)
	assert.Equal(t, 1000.0, b.SubtotalAmount)
	assert.Equal(t, 20.0, b.ShiftChargePercent)
	assert.Equal(t, 1200.0, b.TotalAmount)
	assert.Equal(t, 1200.0, out.TotalAmount)
	assert.Nil(t, b.WorkerID)
}

func TestCreateBookingFlexibleStoredAsDay(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.createBooking(t, "", env.customer.ID, "flexible")
	assert.Equal(t, "day", b.ShiftType)
	assert.Equal(t, 1000.0, b.TotalAmount)
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	body := env.bookingBody(env.customer.ID, "evening", 0)
	body["customer_phone"] = "12"
	body["customer_email"] = "nope"
	body["services"] = []map[string]interface{}{{"service_id": env.cleaning.ID}}

	w := env.do(t, http.MethodPost, "/booking", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w, nil)
	assert.False(t, resp.Status)
	assert.Equal(t, "The given data was invalid.", resp.Message)
	for _, field := range []string{"shift_type", "customer_phone", "customer_email", "services.0.service_subcategory_id"} {
		assert.Contains(t, resp.Errors, field)
	}

	body = env.bookingBody(env.customer.ID, "day", 1)
	delete(body, "user_id")
	w = env.do(t, http.MethodPost, "/booking", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w, nil).Errors, "user_id")

	body = env.bookingBody(env.customer.ID, "day", 1)
	body["scheduled_at"] = "2001-01-01T10:00"
	w = env.do(t, http.MethodPost, "/booking", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w, nil).Errors, "services.0.scheduled_at")

	body = env.bookingBody(env.customer.ID, "day", 1)
	body["scheduled_at"] = "someday"
	w = env.do(t, http.MethodPost, "/booking", "", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateBookingUnknownSubcategoryReportsPath(t *testing.T) {
	env := newTestEnv(t, nil)

	body := env.bookingBody(env.customer.ID, "day", 1)
	body["services"] = []map[string]interface{}{
		{"service_id": env.cleaning.ID, "service_subcategory_id": env.deepClean.ID},
		{"service_id": env.cleaning.ID, "service_subcategory_id": 999},
	}
	w := env.do(t, http.MethodPost, "/booking", "", body)
	require.Equal(t, http.StatusNotFound, w.Code)

	var data struct {
		Path string `json:"path"`
	}
	decode(t, w, &data)
	assert.Equal(t, "services.1", data.Path)

	var n int64
	require.NoError(t, env.db.Model(&models.Booking{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateBookingCreatorRules(t *testing.T) {
	env := newTestEnv(t, nil)

	// customers book for themselves only
	w := env.do(t, http.MethodPost, "/booking", tokenFor(t, env.customer), env.bookingBody(env.otherCustomer.ID, "day", 1))
	assert.Equal(t, http.StatusForbidden, w.Code)

	body := env.bookingBody(env.customer.ID, "day", 1)
	body["worker_id"] = env.peer.ID
	w = env.do(t, http.MethodPost, "/booking", tokenFor(t, env.customer), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/booking", tokenFor(t, env.admin), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out createdJSON
	decode(t, w, &out)
	require.NotNil(t, out.Bookings[0].WorkerID)
	assert.Equal(t, env.peer.ID, *out.Bookings[0].WorkerID)

	w = env.do(t, http.MethodPost, "/booking", "garbage-token", env.bookingBody(env.customer.ID, "day", 1))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBatchBooking(t *testing.T) {
	env := newTestEnv(t, nil)

	body := map[string]interface{}{
		"bookings": []map[string]interface{}{
			env.bookingBody(env.customer.ID, "night", 2),
			env.bookingBody(env.otherCustomer.ID, "day", 1),
		},
	}
	w := env.do(t, http.MethodPost, "/booking/batch", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		createdJSON
		Summary struct {
			TotalBookings int     `json:"total_bookings"`
			TotalQuantity int     `json:"total_quantity"`
			TotalAmount   float64 `json:"total_amount"`
		} `json:"summary"`
	}
	decode(t, w, &out)
	assert.Len(t, out.Bookings, 2)
	assert.Equal(t, 2, out.Summary.TotalBookings)
	assert.Equal(t, 3, out.Summary.TotalQuantity)
	assert.Equal(t, 1700.0, out.Summary.TotalAmount)
}

func TestCreateBatchBookingRollsBack(t *testing.T) {
	env := newTestEnv(t, nil)

	bad := env.bookingBody(env.customer.ID, "day", 1)
	bad["user_id"] = 4242
	body := map[string]interface{}{
		"bookings": []map[string]interface{}{env.bookingBody(env.customer.ID, "day", 1), bad},
	}
	w := env.do(t, http.MethodPost, "/booking/batch", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w, nil).Errors, "bookings.1.customer_id")

	var n int64
	require.NoError(t, env.db.Model(&models.Booking{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateBookingStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.createBooking(t, "", env.customer.ID, "day")
	path := fmt.Sprintf("/booking/%d/status", b.ID)

	w := env.do(t, http.MethodPatch, path, "", map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPatch, path, tokenFor(t, env.customer), map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, path, tokenFor(t, env.admin), map[string]string{"status": "done"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w, nil).Errors, "status")

	// Worker One has no linked profile yet; it is linked by email here.
	w = env.do(t, http.MethodPatch, path, tokenFor(t, env.workerUser), map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got bookingJSON
	decode(t, w, &got)
	assert.Equal(t, "confirmed", got.Status)
	require.NotNil(t, got.WorkerID)
	assert.Equal(t, env.worker.ID, *got.WorkerID)

	w = env.do(t, http.MethodPatch, path, tokenFor(t, env.peerUser), map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, path, tokenFor(t, env.admin), map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, path, tokenFor(t, env.workerUser), map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPatch, "/booking/9999/status", tokenFor(t, env.admin), map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/booking/%d/history", b.ID), tokenFor(t, env.customer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.BookingStatusEvent
	decode(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, models.BookingStatusConfirmed, history[0].ToStatus)
	assert.Equal(t, models.BookingStatusPaid, history[1].ToStatus)
}

func TestConcurrentStatusUpdatesHaveOneWinner(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.createBooking(t, "", env.customer.ID, "day")
	path := fmt.Sprintf("/booking/%d/status", b.ID)
	tokens := []string{tokenFor(t, env.workerUser), tokenFor(t, env.peerUser), tokenFor(t, env.admin)}

	codes := make([]int, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			codes[i] = env.do(t, http.MethodPatch, path, token, map[string]string{"status": "confirmed"}).Code
		}(i, token)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict, http.StatusBadRequest, http.StatusForbidden:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestBookingReadAccess(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.createBooking(t, "", env.customer.ID, "day")
	path := fmt.Sprintf("/booking/%d", b.ID)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, tokenFor(t, env.customer), nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, tokenFor(t, env.otherCustomer), nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, tokenFor(t, env.peerUser), nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/booking/abc", tokenFor(t, env.admin), nil).Code)

	customerPath := fmt.Sprintf("/booking/customer/%d", env.customer.ID)
	w := env.do(t, http.MethodGet, customerPath, tokenFor(t, env.customer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []bookingJSON
	decode(t, w, &list)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, customerPath, tokenFor(t, env.otherCustomer), nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, customerPath, tokenFor(t, env.admin), nil).Code)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/booking", tokenFor(t, env.customer), nil).Code)
	w = env.do(t, http.MethodGet, "/booking", tokenFor(t, env.admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list, 1)
}

func TestWorkerReadBoundary(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.createBooking(t, "", env.customer.ID, "day")

	plumbing := models.Service{Name: "Plumbing", IsActive: true}
	require.NoError(t, env.db.Create(&plumbing).Error)
	plumberUser := models.User{Name: "Plumber", Email: "plumber@example.com", Password: "x", Role: "worker"}
	require.NoError(t, env.db.Create(&plumberUser).Error)
	plumber := models.Worker{UserID: &plumberUser.ID, Name: "Plumber", Email: plumberUser.Email, IsActive: true}
	require.NoError(t, env.db.Omit("Services").Create(&plumber).Error)
	require.NoError(t, env.db.Create(&models.WorkerService{WorkerID: plumber.ID, ServiceID: plumbing.ID}).Error)

	paths := []string{
		fmt.Sprintf("/booking/%d", b.ID),
		fmt.Sprintf("/booking/%d/history", b.ID),
		fmt.Sprintf("/booking/%d/payments", b.ID),
		fmt.Sprintf("/booking/%d/invoice", b.ID),
	}

	for _, path := range paths {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, tokenFor(t, env.peerUser), nil).Code, path)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, tokenFor(t, plumberUser), nil).Code, path)
	}

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/booking/%d/status", b.ID), tokenFor(t, env.workerUser), map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, path := range paths {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, tokenFor(t, env.workerUser), nil).Code, path)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, tokenFor(t, env.peerUser), nil).Code, path)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, tokenFor(t, env.admin), nil).Code, path)
	}
}

func TestWorkerJobLists(t *testing.T) {
	env := newTestEnv(t, nil)
	open := env.createBooking(t, "", env.customer.ID, "day")
	mine := env.createBooking(t, "", env.customer.ID, "night")

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/booking/%d/status", mine.ID), tokenFor(t, env.workerUser), map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var jobs []bookingJSON
	w = env.do(t, http.MethodGet, "/booking/worker/jobs", tokenFor(t, env.workerUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, mine.ID, jobs[0].ID)

	w = env.do(t, http.MethodGet, "/booking/worker/open", tokenFor(t, env.peerUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, open.ID, jobs[0].ID)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/booking/worker/jobs", tokenFor(t, env.customer), nil).Code)

	orphan := models.User{Name: "No Profile", Email: "orphan@example.com", Password: "x", Role: "worker"}
	require.NoError(t, env.db.Create(&orphan).Error)
	w = env.do(t, http.MethodGet, "/booking/worker/jobs", tokenFor(t, orphan), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w, &jobs)
	assert.Equal(t, "No worker profile found", resp.Message)
	assert.Empty(t, jobs)
}

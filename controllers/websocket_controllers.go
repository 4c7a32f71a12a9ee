package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/service-booking/hub"
	"github.com/yeremiapane/service-booking/middlewares"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/services"
	"github.com/yeremiapane/service-booking/utils"
)

type WebSocketController struct {
	Hub      *hub.Hub
	Workers  *services.WorkerDirectory
	upgrader websocket.Upgrader
}

// NewWebSocketController accepts upgrades from any origin; origin checks are
// done by the CORS middleware in front of it.
func NewWebSocketController(h *hub.Hub, workers *services.WorkerDirectory) *WebSocketController {
	return &WebSocketController{
		Hub:     h,
		Workers: workers,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe -> GET /ws/bookings
func (wc *WebSocketController) Subscribe(c *gin.Context) {
	if !middlewares.CurrentRole(c).Can(role.ActionSubscribeEvents) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	actor, err := resolveActor(c, wc.Workers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sub := hub.Subscriber{UserID: actor.UserID, Role: actor.Role}
	if actor.Worker != nil {
		serviceIDs, err := wc.Workers.ServiceIDs(c.Request.Context(), actor.Worker.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		sub.WorkerID = &actor.Worker.ID
		sub.ServiceIDs = serviceIDs
	}

	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	wc.Hub.Register(ws, sub)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	wc.Hub.Unregister(ws)
}

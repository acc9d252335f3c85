package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/secretarylab/relayd/internal/domain"
)

// ReplySender runs one reply automation and returns its terminal status.
type ReplySender interface {
	SendReply(ctx context.Context, req domain.ReplyRequest) domain.AutomationStatus
}

// BridgeAttacher adopts device helper connections.
type BridgeAttacher interface {
	Attach(conn *websocket.Conn)
	Connected() bool
}

// API registers the control routes.
type API struct {
	replies  ReplySender
	bridge   BridgeAttacher
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewAPI creates the control API handler.
func NewAPI(replies ReplySender, bridge BridgeAttacher, hub *Hub, logger *zap.Logger) *API {
	return &API{
		replies: replies,
		bridge:  bridge,
		hub:     hub,
		logger:  logger,
		// The API binds to localhost; cross-origin checks add nothing.
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Register implements Handler.
func (a *API) Register(e *echo.Echo) {
	e.GET("/health", a.health)
	e.POST("/reply", a.reply)
	e.GET("/events", a.events)
	e.GET("/bridge", a.bridgeSocket)
}

func (a *API) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":           "ok",
		"bridge_connected": a.bridge.Connected(),
	})
}

// reply accepts a ReplyRequest and blocks until the automation run reaches a
// terminal status. Intermediate statuses stream over /events meanwhile.
func (a *API) reply(c echo.Context) error {
	var req domain.ReplyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Sender == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sender and message are required"})
	}

	status := a.replies.SendReply(c.Request().Context(), req)
	return c.JSON(httpStatusFor(status), map[string]string{"status": string(status)})
}

func (a *API) events(c echo.Context) error {
	conn, err := a.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	a.hub.Serve(conn)
	return nil
}

func (a *API) bridgeSocket(c echo.Context) error {
	conn, err := a.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	a.bridge.Attach(conn)
	return nil
}

func httpStatusFor(status domain.AutomationStatus) int {
	switch status {
	case domain.StatusSuccess:
		return http.StatusOK
	case domain.StatusSkippedInProgress:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	domain "customerSyncWs/internal/modules/realtime/domain"
	"customerSyncWs/internal/modules/realtime/infrastructure"
	"customerSyncWs/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const sendBuffer = 16

// NewWebsocketHandler expone /ws. La autenticación es opcional en el upgrade:
// un token válido (header Authorization o query ?token=) liga la conexión de
// inmediato, sin token la conexión queda anónima hasta un comando authenticate.
func NewWebsocketHandler(
	hub *infrastructure.Hub,
	commands *infrastructure.CommandProcessor,
	validator auth.TokenValidator,
) func(echo.Context) error {
	return func(c echo.Context) error {
		peerIP := c.RealIP()
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)

		var preBound string
		if validator != nil {
			if token := auth.ExtractToken(c.Request(), "token"); token != "" {
				claims, err := validator.Validate(token)
				if err != nil {
					slog.Warn("ws handler token rejected", slog.String("ip", peerIP), slog.Any("error", err))
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				preBound = claims.CustomerID()
			}
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws handler upgrade failed", slog.String("ip", peerIP), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, sendBuffer, commands)
		if preBound != "" {
			if berr := client.Bind(preBound); berr != nil {
				slog.Error("ws handler pre-bind failed", slog.String("connectionId", client.ID()), slog.Any("error", berr))
			}
		}
		hub.Attach(client)

		go client.WritePump()
		go client.ReadPump(c.Request().Context())

		welcome := map[string]any{
			"connectionId": client.ID(),
			"serverTime":   time.Now().UTC().Format(time.RFC3339),
		}
		if preBound != "" {
			welcome["customerId"] = preBound
		}
		client.SendFrame(domain.NewFrame(domain.FrameConnectionEstablished, welcome))

		slog.Info("ws connected",
			slog.String("connectionId", client.ID()),
			slog.String("customerId", preBound),
			slog.String("ip", peerIP),
			slog.String("requestId", requestID))
		return nil
	}
}

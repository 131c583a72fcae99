package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/redact"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

// NotificationHandler streams a user's notifications over a websocket.
// Each connection subscribes to the channel of the authenticated actor only.
type NotificationHandler struct {
	bus      notify.Bus
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewNotificationHandler creates a handler reading from bus. allowedOrigin
// is checked against the Origin header of the upgrade; "*" allows any.
func NewNotificationHandler(bus notify.Bus, allowedOrigin string, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		logger: logger.With(slog.String("component", "notification_handler")),
	}
}

// Stream handles GET /notifications. Events are written as JSON text frames
// of the form {"event": name, "data": payload}. Anything the client sends is
// discarded.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger).With("channel", actor.ID)

	sub, err := h.bus.Subscribe(r.Context(), actor.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Notifications unavailable", err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Debug("websocket upgrade failed", "error", redact.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	log.Info("notification stream opened")
	closed := h.readLoop(conn)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				log.Info("notification stream ended by bus")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("failed to write notification", "event", ev.Name, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-closed:
			log.Info("notification stream closed by client")
			return
		}
	}
}

// readLoop drains client frames so control messages are processed. The
// returned channel is closed when the connection fails or is closed.
func (h *NotificationHandler) readLoop(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()
	return closed
}

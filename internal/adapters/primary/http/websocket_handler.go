package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lome-transit/ticketing-backend/internal/adapters/primary/http/middleware"
	ws "github.com/lome-transit/ticketing-backend/internal/adapters/primary/websocket"
	"github.com/lome-transit/ticketing-backend/internal/auth"
)

// WebSocketConfig carries the tunables for realtime connections.
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// WebSocketHandler upgrades dashboard connections and attaches them to the
// event hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	tokens   *auth.TokenManager
	upgrader websocket.Upgrader
	cfg      WebSocketConfig
	logger   *slog.Logger
}

func NewWebSocketHandler(hub *ws.Hub, tokens *auth.TokenManager, cfg WebSocketConfig, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
		cfg:    cfg,
		logger: logger.With("component", "websocket_handler"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin allows listed origins, or any origin when the list holds "*".
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (scanner devices) send no Origin header.
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Serve handles GET /api/v1/ws. Browsers cannot set an Authorization
// header on websocket handshakes, so the token rides in a query parameter;
// the Authorization header is still honored for non-browser clients.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: "Authentication required",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		var err error
		claims, err = h.tokens.ValidateToken(token)
		if err != nil {
			WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: "Invalid or expired token",
				Code:  "UNAUTHORIZED",
			})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	// One stream per account: a reconnect supersedes the old connection.
	sub := h.hub.Subscribe(claims.UserID.String())
	client := ws.NewClient(h.hub, conn, sub, h.cfg.PingInterval, h.cfg.PongWait, h.logger)

	h.logger.Info("websocket connected", "client_id", sub.ClientID)

	go client.WritePump()
	go client.ReadPump()
}

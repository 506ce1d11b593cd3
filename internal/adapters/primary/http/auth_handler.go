package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lome-transit/ticketing-backend/internal/auth"
	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// AuthHandler handles account registration and login.
type AuthHandler struct {
	service ports.AuthService
	tokens  *auth.TokenManager
	logger  *slog.Logger
}

func NewAuthHandler(service ports.AuthService, tokens *auth.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens, logger: logger}
}

type registerRequest struct {
	FullName   string `json:"full_name"`
	Identifier string `json:"identifier"`
	Channel    string `json:"channel,omitempty"` // optional: "email" or "phone"
	Password   string `json:"password"`
	Role       string `json:"role,omitempty"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Channel    string `json:"channel,omitempty"`
	Password   string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Identifier     string `json:"identifier"`
	IdentifierKind string `json:"identifier_kind"`
	Role           string `json:"role"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		Identifier:     u.Identifier,
		IdentifierKind: string(u.IdentifierKind),
		Role:           string(u.Role),
	}
}

// channelHint maps the optional wire value onto a resolver hint. Unknown
// values fall back to no hint rather than failing the request.
func channelHint(channel string) domain.IdentifierHint {
	switch channel {
	case "email":
		return domain.HintEmail
	case "phone", "sms":
		return domain.HintPhone
	default:
		return domain.HintNone
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), ports.RegisterParams{
		FullName:   req.FullName,
		Identifier: req.Identifier,
		Hint:       channelHint(req.Channel),
		Password:   req.Password,
		Role:       domain.Role(req.Role),
	})
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	WriteCreated(w, authResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(user),
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.Login(r.Context(), req.Identifier, req.Password, channelHint(req.Channel))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	WriteSuccess(w, authResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(user),
	})
}

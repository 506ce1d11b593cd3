package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lome-transit/ticketing-backend/internal/adapters/primary/http/middleware"
	"github.com/lome-transit/ticketing-backend/internal/auth"
	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedRequest(t *testing.T, method, target string, body any, actor uuid.UUID) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	claims := &auth.Claims{UserID: actor, Role: domain.RoleScanner}
	ctx := context.WithValue(req.Context(), middleware.UserClaimsKey, claims)
	return req.WithContext(ctx)
}

func TestValidationHandler_AcceptedScan(t *testing.T) {
	svc := mocks.NewMockValidationService()
	handler := NewValidationHandler(svc, testLogger())
	actor := uuid.New()

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		Code:      "ABC123",
		TripID:    uuid.New(),
		State:     domain.StateUsed,
		UsedBy:    &actor,
		UsedAt:    &now,
		CreatedAt: now,
	}
	svc.On("Validate", mock.Anything, "ABC123", actor).
		Return(&domain.ValidationResult{Outcome: domain.OutcomeAccepted, Ticket: ticket}, nil)

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/v1/validations", validateRequest{Code: "ABC123"}, actor)
	handler.Validate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ACCEPTED", resp.Outcome)
	assert.Empty(t, resp.Reason)
	require.NotNil(t, resp.Ticket)
	assert.Equal(t, "ABC123", resp.Ticket.Code)
	assert.Equal(t, "USED", resp.Ticket.State)
	svc.AssertExpectations(t)
}

func TestValidationHandler_RejectionIsStillHTTP200(t *testing.T) {
	svc := mocks.NewMockValidationService()
	handler := NewValidationHandler(svc, testLogger())
	actor := uuid.New()

	svc.On("Validate", mock.Anything, "NOPE", actor).
		Return(&domain.ValidationResult{
			Outcome: domain.OutcomeRejected,
			Reason:  domain.ReasonNotFound,
		}, nil)

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/v1/validations", validateRequest{Code: "NOPE"}, actor)
	handler.Validate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "REJECTED", resp.Outcome)
	assert.Equal(t, "NOT_FOUND", resp.Reason)
	assert.Nil(t, resp.Ticket)
}

func TestValidationHandler_StoreUnavailableIs503(t *testing.T) {
	svc := mocks.NewMockValidationService()
	handler := NewValidationHandler(svc, testLogger())
	actor := uuid.New()

	svc.On("Validate", mock.Anything, "ABC123", actor).
		Return(nil, apperrors.NewStoreUnavailableError(assert.AnError))

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/v1/validations", validateRequest{Code: "ABC123"}, actor)
	handler.Validate(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "STORE_UNAVAILABLE", resp.Code)
}

func TestValidationHandler_EmptyCodeIsBadRequest(t *testing.T) {
	svc := mocks.NewMockValidationService()
	handler := NewValidationHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/v1/validations", validateRequest{Code: "   "}, uuid.New())
	handler.Validate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidationHandler_MissingClaimsIsUnauthorized(t *testing.T) {
	svc := mocks.NewMockValidationService()
	handler := NewValidationHandler(svc, testLogger())

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(validateRequest{Code: "ABC123"}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", &buf)
	handler.Validate(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidationHandler_MalformedBody(t *testing.T) {
	svc := mocks.NewMockValidationService()
	handler := NewValidationHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", bytes.NewBufferString("{not json"))
	claims := &auth.Claims{UserID: uuid.New(), Role: domain.RoleScanner}
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserClaimsKey, claims))

	rec := httptest.NewRecorder()
	handler.Validate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

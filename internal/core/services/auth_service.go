package services

import (
	"context"
	"errors"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// AuthService implements authentication keyed by canonical identifier: the
// raw phone-or-email a user types is resolved before any lookup, so
// "00228 71 23 45 67" and "+22871234567" land on the same account.
type AuthService struct {
	userRepo ports.UserRepository
	plan     domain.DialingPlan
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo ports.UserRepository, plan domain.DialingPlan) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		plan:     plan,
	}
}

// Register creates a new user account with validated credentials.
func (s *AuthService) Register(ctx context.Context, params ports.RegisterParams) (*domain.User, error) {
	user, err := domain.NewUser(domain.UserRegistrationParams{
		FullName:   params.FullName,
		Identifier: params.Identifier,
		Hint:       params.Hint,
		Password:   params.Password,
		Role:       params.Role,
	}, s.plan)
	if err != nil {
		return nil, err
	}

	// Uniqueness check on the canonical form.
	_, err = s.userRepo.GetByIdentifier(ctx, user.Identifier)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	return s.userRepo.Create(ctx, user)
}

// Login authenticates a user by identifier and password. The identifier is
// resolved first; a phone that normalizes to garbage simply fails the
// lookup and surfaces as invalid credentials, which is the designed error
// signal for malformed numbers.
func (s *AuthService) Login(ctx context.Context, identifier, password string, hint domain.IdentifierHint) (*domain.User, error) {
	if identifier == "" {
		return nil, apperrors.ErrIdentifierRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	resolved := s.plan.ResolveIdentifier(identifier, hint)

	user, err := s.userRepo.GetByIdentifier(ctx, resolved.Canonical)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Don't reveal whether the identifier exists
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

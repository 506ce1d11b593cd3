package domain

import (
	"net/mail"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
)

// Validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxFullNameLength = 255
)

// Role determines what a user may do on the platform.
type Role string

const (
	RoleRider   Role = "rider"
	RoleScanner Role = "scanner"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleRider, RoleScanner, RoleAdmin:
		return true
	}
	return false
}

// User is an account on the platform. The Identifier field holds the
// canonical login key produced by the identifier resolver: a lower-cased
// email or a normalized phone number.
type User struct {
	ID             uuid.UUID
	Identifier     string
	IdentifierKind IdentifierKind
	FullName       string
	HashedPassword string
	Role           Role
	CreatedAt      time.Time
}

// UserRegistrationParams holds parameters for user registration.
type UserRegistrationParams struct {
	FullName   string
	Identifier string // raw email or phone, resolved during NewUser
	Hint       IdentifierHint
	Password   string
	Role       Role
}

// Validate checks registration parameters before an account is created.
func (p UserRegistrationParams) Validate() error {
	if p.FullName == "" {
		return apperrors.ErrFullNameRequired
	}
	if len(p.FullName) > MaxFullNameLength {
		return apperrors.ErrFullNameTooLong
	}
	if p.Identifier == "" {
		return apperrors.ErrIdentifierRequired
	}
	if p.Password == "" {
		return apperrors.ErrPasswordRequired
	}
	if err := validatePassword(p.Password); err != nil {
		return err
	}
	if p.Role != "" && !ValidRole(p.Role) {
		return apperrors.ErrInvalidRole
	}
	return nil
}

// NewUser creates a user from validated registration parameters. The raw
// identifier is resolved to its canonical form; emails additionally get a
// format check (phones do not — normalization is best-effort by design).
func NewUser(params UserRegistrationParams, plan DialingPlan) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ident := plan.ResolveIdentifier(params.Identifier, params.Hint)
	if ident.Kind == KindEmail {
		if _, err := mail.ParseAddress(ident.Canonical); err != nil {
			return nil, apperrors.ErrEmailInvalid
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = RoleRider
	}

	return &User{
		ID:             uuid.New(),
		Identifier:     ident.Canonical,
		IdentifierKind: ident.Kind,
		FullName:       params.FullName,
		HashedPassword: string(hash),
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}

// validatePassword enforces the minimum password policy: length bounds
// plus at least one upper-case letter, one lower-case letter and one digit.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return apperrors.ErrPasswordTooWeak
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber {
		return apperrors.ErrPasswordTooWeak
	}
	return nil
}

package model

import (
	"strings"
	"time"
	"unicode"

	"press-subscription/internal/domain"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

func (r UserRole) Valid() bool { return r == UserRoleAdmin || r == UserRoleUser }

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name"`
	Role         UserRole  `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser builds an active, non-admin user. The password must already be hashed.
func NewUser(id, email, username, passwordHash string, fullName *string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     blankToNil(fullName),
		Role:         UserRoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (u *User) IsZero() bool  { return u == nil || u.ID == "" }
func (u *User) IsAdmin() bool { return u != nil && u.Role == UserRoleAdmin }

// ValidatePassword enforces the registration strength rules:
// 8..100 characters with at least one upper, one lower and one digit.
func ValidatePassword(p string) error {
	if n := len(p); n < 8 || n > 100 {
		return domain.ErrInvalidArgument
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return domain.ErrInvalidArgument
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

package domain

import (
	"errors"
	"time"
)

const (
	// RoleStaff is the only role allowed to operate counters.
	RoleStaff = "staff"
	// RoleKiosk may issue tokens but cannot call or complete them.
	RoleKiosk = "kiosk"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrForbidden = errors.New("access forbidden")

// User models an authenticated actor: counter staff or an issuing kiosk.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsStaff reports whether the user may operate the admin console.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}

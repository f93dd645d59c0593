package entity

import "time"

// User represents an account row in the `users` table. Password holds the
// bcrypt hash and is never serialized.
type User struct {
	UserID     int64     `db:"user_id" json:"user_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Password   string    `db:"password" json:"-"`
	Mobile     string    `db:"mobile" json:"mobile"`
	UserTypeID int       `db:"user_type_id" json:"user_type_id"`
	Position   string    `db:"position" json:"position"`
	Company    string    `db:"company" json:"company"`
	UserImage  string    `db:"user_image" json:"user_image"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Sanitized returns a copy without the password hash.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// NewUser is the signup payload; Password is plaintext.
type NewUser struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,max=72"`
	Mobile     string `json:"mobile"`
	UserTypeID int    `json:"user_type_id" validate:"required,gt=0"`
	Position   string `json:"position"`
	Company    string `json:"company"`
	UserImage  string `json:"user_image"`
	Status     string `json:"status"`
}

// UserPatch is a partial update. A supplied Password counts as a change only
// when it does not match the stored hash, or when PasswordChanged is set.
type UserPatch struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password" validate:"omitempty,min=1,max=72"`
	PasswordChanged bool    `json:"password_changed"`
	Mobile          *string `json:"mobile"`
	UserTypeID      *int    `json:"user_type_id" validate:"omitempty,gt=0"`
	Position        *string `json:"position"`
	Company         *string `json:"company"`
	UserImage       *string `json:"user_image"`
	Status          *string `json:"status"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login history actions.
const (
	ActionLoggedIn  = "logged in"
	ActionLoggedOut = "logged out"
)

// LoginHistoryEntry is an append-only audit record of a login or logout.
type LoginHistoryEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Action    string    `db:"action" json:"action"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

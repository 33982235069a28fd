package models

import "time"

// Roles known to the booking backend.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can sign in and own reservations.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

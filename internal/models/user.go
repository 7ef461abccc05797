package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User roles. Mutation of a role is an admin-only operation and an admin may
// never demote themselves.
const (
	RoleAdmin      = "ADMIN"
	RoleResearcher = "RESEARCHER"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

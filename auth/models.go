// Package auth is responsible for authentication: credential hashing and
// verification, resolving the session cookie to a current user on every
// request, and issuing API tokens for the JSON surface. This file defines the
// User entity as stored in the users table and used across the application.
package auth

import "time"

// User represents a registered account. The `json:"-"` tag keeps the bcrypt
// hash out of every JSON response no matter which handler serializes a user.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

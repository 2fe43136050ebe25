// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. UserName holds the e-mail address used at registration.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}

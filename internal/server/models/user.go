// Package models defines the persistent row types shared by repositories
// and services.
package models

import "time"

// User is a registered farmer account. The auth core only reads users;
// creation happens once at signup and the row is immutable afterwards.
type User struct {
	ID        string
	Name      string
	Phone     string
	Local     string
	Area      string
	City      string
	CreatedAt time.Time
}

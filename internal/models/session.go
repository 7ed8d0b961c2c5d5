package models

import "time"

// SessionCookieName is the name of the single cookie holding the bearer token
const SessionCookieName = "token"

// SessionCookiePath is the path the token cookie is scoped to
const SessionCookiePath = "/"

// Cookie is one slot of the local cookie jar.
// Only the token cookie is ever written; no expiry, Secure or HttpOnly flags are kept.
type Cookie struct {
	Name      string    `gorm:"primaryKey"`
	Path      string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

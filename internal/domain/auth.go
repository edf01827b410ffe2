package domain

import "time"

// AccessToken describes an issued bearer token.
type AccessToken struct {
	Token     string
	UserID    string
	Role      Role
	ExpiresAt time.Time
}

// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen      = 36
	MaxDisplayNameLen = 36
)

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

type UserID string

// Identity is the optional user attached to a connection at accept time.
// A connection without an identity is anonymous and never appears in presence.
type Identity struct {
	UserID    UserID `json:"userId"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
// Name is clamped rather than rejected; the user id is load-bearing and is not.
func NewIdentity(userID, name, avatarURL string) (*Identity, error) {
	if len(userID) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(userID) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if len(name) > MaxDisplayNameLen {
		name = name[:MaxDisplayNameLen]
	}
	return &Identity{UserID: UserID(userID), Name: name, AvatarURL: avatarURL}, nil
}

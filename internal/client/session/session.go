// Package session keeps the persisted authentication state of the admin client:
// access and refresh tokens, display name, realm and the server supplied menus.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Realm selects which backend variant governs token refresh
type Realm string

const (
	RealmAdmin Realm = "admin"
	RealmLevel Realm = "level"
)

// ParseRealm validates a realm tag. Empty string means admin.
func ParseRealm(s string) (Realm, error) {
	switch Realm(s) {
	case "", RealmAdmin:
		return RealmAdmin, nil
	case RealmLevel:
		return RealmLevel, nil
	default:
		return "", fmt.Errorf("unknown realm %q (expected admin or level)", s)
	}
}

// Session is a snapshot of everything stored for the current user.
// Empty AccessToken means the client is not authenticated,
// empty RefreshToken means the session cannot be silently renewed.
type Session struct {
	LastActivity time.Time
	AccessToken  string
	RefreshToken string
	DisplayName  string
	Realm        Realm
}

// Authenticated reports whether an access token is present
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Menus is the sidebar payload returned by login, kept verbatim
type Menus struct {
	Flat []json.RawMessage `json:"flat,omitempty"`
	Tree []json.RawMessage `json:"tree,omitempty"`
}

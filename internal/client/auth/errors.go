package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRefreshToken is returned when a refresh is requested without a stored refresh token
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrNoAccessToken indicates that the refresh response carried no access token
	ErrNoAccessToken = errors.New("no access token in refresh response")

	// ErrSessionCleared means the session was cleared while a request was in flight
	ErrSessionCleared = errors.New("session was cleared")

	// ErrSessionExpired matches every RefreshError via errors.Is
	ErrSessionExpired = errors.New("session expired")
)

// RefreshError is returned to every request that waited on a failed refresh.
// The local session is already cleared when it is returned.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("session expired: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSessionExpired) true for any RefreshError
func (e *RefreshError) Is(target error) bool {
	return target == ErrSessionExpired
}

package session

import "errors"

// ===== PROFILE ERRORS =====

var (
	// ErrNoSuchProfile is returned when the service knows no profile
	// for the requested name or id.
	ErrNoSuchProfile = errors.New("no such profile")

	// ErrNotJoined is returned by HasJoined when the session service
	// has no record of the player joining this server.
	ErrNotJoined = errors.New("player has not joined this server")
)

// ===== ACCOUNT ERRORS =====

var (
	ErrUnauthorized = errors.New("access token rejected")

	// ErrNotXSTSToken is returned when the Minecraft login is attempted
	// with a plain Xbox user token instead of an XSTS token.
	ErrNotXSTSToken = errors.New("token is not an XSTS token")

	ErrUnexpectedStatus = errors.New("unexpected response status")
)

package domain

import "errors"

var (
	ErrProtocol    = errors.New("protocol error")
	ErrAuth        = errors.New("auth error")
	ErrMembership  = errors.New("membership error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
	ErrRateLimited = errors.New("rate limited")
)

// ErrorCode maps an error to the code reported on the wire.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrMembership):
		return "membership"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}

// PublicMessage is the text a client may see. Store and internal
// failures are reported without their cause.
func PublicMessage(err error) string {
	switch ErrorCode(err) {
	case "persistence":
		return "storage unavailable, try again"
	case "internal":
		return "internal error"
	default:
		return err.Error()
	}
}

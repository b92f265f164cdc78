package ticket

import "errors"

// User-visible rejection reasons. Boundaries map these to reply text or HTTP
// status codes; anything else is an internal error.
var (
	ErrEmbedInactive  = errors.New("embed is not active")
	ErrNotTicketOwner = errors.New("ticket does not belong to this user")
	ErrAlreadyClosed  = errors.New("ticket is already closed")
	ErrInvalidToken   = errors.New("invalid or expired session token")
	ErrTokenMismatch  = errors.New("token does not match payload")
)

package store

import "errors"

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTokenNotFound  = errors.New("session token not found")
	ErrEmbedNotFound  = errors.New("embed not found")
	ErrInvalidStatus  = errors.New("invalid ticket status")
)

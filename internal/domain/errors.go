package domain

import "errors"

// ErrTicketNotFound is returned by ticket repositories for unknown ids.
var ErrTicketNotFound = errors.New("ticket not found")

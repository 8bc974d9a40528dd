package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyPaid      = errors.New("order already paid")
	ErrAlreadyDelivered = errors.New("order already delivered")

	// ErrNotPaid guards the deliver transition when the service is
	// configured to require payment first.
	ErrNotPaid = errors.New("order not paid")
)

// ValidationError rejects a malformed cart or price breakdown at creation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s", e.Reason)
}

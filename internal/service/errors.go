package service

import (
	"errors"
	"fmt"

	"github.com/emberleaf/storefront/internal/domain"
)

var (
	// ErrInvalidItem means the mutation referenced no resolvable catalog entry.
	ErrInvalidItem = errors.New("item reference is required")

	// ErrInvalidQuantity means a non-positive quantity was requested.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrPersistence means the durable store rejected a write. The returned
	// state is still the mutated one; only durability failed.
	ErrPersistence = errors.New("cart could not be saved, please try again")
)

// QuantityLimitError rejects an add that would push a line past the cap.
// The add fails in full rather than clamping, so the message can tell the
// user exactly which item hit the limit.
type QuantityLimitError struct {
	Name  string
	Limit int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("cannot hold more than %d of %q", e.Limit, e.Name)
}

// NewQuantityLimitError builds the error for the given line.
func NewQuantityLimitError(name string) *QuantityLimitError {
	return &QuantityLimitError{Name: name, Limit: domain.MaxItemQuantity}
}

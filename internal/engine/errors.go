package engine

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadySignedIn = errors.New("already signed in today")
	ErrItemNotFound    = errors.New("shop item not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrNotClaimable    = errors.New("task reward is not claimable")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrSessionClosed   = errors.New("session is closed")
)

// OutOfStockError is returned when the shop holds fewer items than requested.
type OutOfStockError struct {
	Name string
	Have int
	Want int
}

func (e OutOfStockError) Error() string {
	return fmt.Sprintf("'%s' is out of stock (have %d, want %d)", e.Name, e.Have, e.Want)
}

// InsufficientFundsError is returned when a purchase costs more than the balance.
type InsufficientFundsError struct {
	Need float64
	Have float64
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %.2f, have %.2f", e.Need, e.Have)
}

// IsRejection reports whether err is a game-rule rejection rather than a store failure.
func IsRejection(err error) bool {
	var oos OutOfStockError
	var funds InsufficientFundsError
	switch {
	case errors.Is(err, ErrAlreadySignedIn),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrNotClaimable),
		errors.Is(err, ErrInvalidQuantity),
		errors.As(err, &oos),
		errors.As(err, &funds):
		return true
	default:
		return false
	}
}

package services

import "github.com/pkg/errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrBadCreds        = errors.New("invalid email or password")
	ErrEmailTaken      = errors.New("email already registered")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrCategoryInUse   = errors.New("category still has products")
	ErrProtectedUser   = errors.New("admin accounts cannot be deleted")
)

// invalid tags ErrInvalidInput with a user-safe reason.
func invalid(reason string) error {
	return errors.WithMessage(ErrInvalidInput, reason)
}

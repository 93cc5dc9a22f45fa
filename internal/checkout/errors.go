package checkout

import (
	"errors"

	"github.com/safar/storefront/internal/database"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrMissingSignature   = errors.New("missing signature")
	ErrMalformedEvent     = errors.New("malformed webhook event")

	ErrOrderNotFound   = database.ErrOrderNotFound
	ErrOrderNotPending = database.ErrOrderNotPending
)

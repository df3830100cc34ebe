package errs

import "errors"

// Domain-specific sentinel errors for CQRS usecase layers
var (
	// Raffle errors
	ErrRaffleNotFound      = errors.New("raffle not found")
	ErrRaffleNotActive     = errors.New("raffle not active")
	ErrRaffleNotCancelable = errors.New("raffle can only be cancelled before payment")
	ErrValueExceeded       = errors.New("total value exceeds fee cap")
	ErrActiveRaffleLimit   = errors.New("active raffle limit reached")

	// Ticket errors
	ErrSoldOut             = errors.New("sold out")
	ErrInsufficientTickets = errors.New("insufficient tickets")

	// Payment errors
	ErrIntentNotFound     = errors.New("payment intent not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayDeclined    = errors.New("payment declined")
	ErrGatewayCancelled   = errors.New("payment cancelled")

	// Idempotency errors
	ErrDuplicateRequest       = errors.New("duplicate request with different payload")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyInProgress  = errors.New("idempotency in progress")
	ErrIdempotencyCheckFailed = errors.New("idempotency check failed")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")
	ErrPermissionDenied = errors.New("permission denied")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)

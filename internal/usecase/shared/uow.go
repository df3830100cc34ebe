package shared

import (
	"context"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/domain/ticket"
	"rafflywin/internal/domain/user"
	"rafflywin/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Raffles() RaffleRepository
	Tickets() TicketRepository
	PaymentIntents() PaymentIntentRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Users() UserRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	RaffleByID(ctx context.Context, id uuid.UUID) (*RaffleSnapshot, error)
	IntentByID(ctx context.Context, id uuid.UUID) (*IntentSnapshot, error)
	IdempotencyByKey(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
	// ActiveRaffleCount counts a creator's raffles still in play
	// (pending_payment or active), for the per-creator cap.
	ActiveRaffleCount(ctx context.Context, creatorID uuid.UUID) (int, error)
}

type RaffleRepository interface {
	Create(ctx context.Context, r *raffle.Raffle) (uuid.UUID, error)
	// GetForUpdate loads the raffle row under FOR UPDATE; every ticket draw
	// serializes on this lock.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*raffle.Raffle, error)
	// UpdateStatus moves a raffle from one status to another and reports how
	// many rows matched, so callers can detect lost CAS races.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to raffle.Status) (int64, error)
	// ExpireStale marks pending_payment raffles older than the cutoff as
	// expired and returns the number of raffles touched.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
	// DueForDraw lists active raffles whose raffle_date has passed, skipping
	// rows another drawer already holds.
	DueForDraw(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
	// CompleteDraw records the draw outcome and moves the raffle to
	// completed, reporting how many rows matched the active predicate.
	CompleteDraw(ctx context.Context, id uuid.UUID, winningNumber int, winnerID *uuid.UUID) (int64, error)
}

type TicketRepository interface {
	InsertBatch(ctx context.Context, tickets []*ticket.Ticket) error
	// SoldNumbers must be read under the raffle row lock to be authoritative.
	SoldNumbers(ctx context.Context, raffleID uuid.UUID) ([]int, error)
	NumbersByIntent(ctx context.Context, intentID uuid.UUID) ([]int, error)
	// OwnerOfNumber resolves who holds a ticket number; nil means the number
	// was never sold.
	OwnerOfNumber(ctx context.Context, raffleID uuid.UUID, number int) (*uuid.UUID, error)
}

type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *payment.Intent) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*payment.Intent, error)
	SetAwaitingGateway(ctx context.Context, id uuid.UUID, checkoutRef string) error
	// ConfirmIfPending is the single-confirmation gate: it flips the intent
	// to confirmed only if it is not already, and reports whether it won.
	ConfirmIfPending(ctx context.Context, id uuid.UUID, externalRef string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status payment.Status) error
	// CancelByRaffle abandons every unconfirmed intent tied to a raffle.
	CancelByRaffle(ctx context.Context, raffleID uuid.UUID) error
	// CancelStale cancels created/awaiting_gateway intents older than the
	// cutoff and returns the raffle IDs they belonged to.
	CancelStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type IdempotencyRepository interface {
	// TryInsert claims the key for this request and reports whether the
	// claim won; false means another request holds or held the key.
	TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	UpdateStatusCompleted(ctx context.Context, key, userID uuid.UUID, responseBodyHash string, resultID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) (uuid.UUID, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

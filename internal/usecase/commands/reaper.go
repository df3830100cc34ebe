package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"time"

	"rafflywin/internal/pkg/clock"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/pkg/errs"
	"rafflywin/internal/usecase/shared"

	"github.com/google/uuid"
)

// MaintenanceCommands sweeps payment state that never resolved: raffles
// stuck in pending_payment past the TTL expire, their intents are
// cancelled, and stale idempotency keys are dropped. It also runs the
// draw for active raffles whose raffle_date has passed.
type MaintenanceCommands interface {
	ExpireStalePayments(ctx context.Context) error
	// RunDueDraws picks a winner for every due raffle and moves it to
	// completed, returning how many raffles were drawn.
	RunDueDraws(ctx context.Context) (int, error)
}

type maintenanceCommandsImpl struct {
	uow   shared.UnitOfWork
	cfg   config.PaymentsConfig
	clock clock.Clock
}

func NewMaintenanceCommands(uow shared.UnitOfWork, cfg config.PaymentsConfig, clk clock.Clock) MaintenanceCommands {
	return &maintenanceCommandsImpl{uow: uow, cfg: cfg, clock: clk}
}

func (m *maintenanceCommandsImpl) ExpireStalePayments(ctx context.Context) error {
	cutoff := m.clock.Now().Add(-m.cfg.PendingTTL)

	return m.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		raffleIDs, err := tx.PaymentIntents().CancelStale(ctx, cutoff)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		expired, err := tx.Raffles().ExpireStale(ctx, cutoff)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		removed, err := tx.Idempotency().DeleteExpired(ctx)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if len(raffleIDs) > 0 || expired > 0 || removed > 0 {
			slog.Info("expired stale payment state",
				"cancelled_intents", len(raffleIDs),
				"expired_raffles", expired,
				"removed_idempotency_keys", removed)
		}
		return nil
	})
}

func (m *maintenanceCommandsImpl) RunDueDraws(ctx context.Context) (int, error) {
	now := m.clock.Now()
	drawn := 0

	err := m.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		due, err := tx.Raffles().DueForDraw(ctx, now)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		for _, raffleID := range due {
			won, err := drawWinner(ctx, tx, raffleID, rng, now)
			if err != nil {
				return err
			}
			if won {
				drawn++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if drawn > 0 {
		slog.Info("completed due raffle draws", "drawn", drawn)
	}
	return drawn, nil
}

// drawWinner picks a number uniformly over the full capacity. An unsold
// winning number means nobody wins; the raffle still completes.
func drawWinner(ctx context.Context, tx shared.Tx, raffleID uuid.UUID, rng *rand.Rand, now time.Time) (bool, error) {
	rf, err := tx.Raffles().GetForUpdate(ctx, raffleID)
	if err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := rf.Complete(); err != nil {
		return false, errs.Mark(err, errs.ErrDomainValidation)
	}

	winningNumber := 1 + rng.IntN(rf.Capacity())
	winnerID, err := tx.Tickets().OwnerOfNumber(ctx, raffleID, winningNumber)
	if err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	affected, err := tx.Raffles().CompleteDraw(ctx, raffleID, winningNumber, winnerID)
	if err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if affected == 0 {
		// Another drawer already completed this raffle.
		return false, nil
	}

	if err := createDrawNotifications(ctx, tx, rf.ID(), rf.CreatorID(), winningNumber, winnerID, now); err != nil {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return true, nil
}

func createDrawNotifications(
	ctx context.Context,
	tx shared.Tx,
	raffleID, creatorID uuid.UUID,
	winningNumber int,
	winnerID *uuid.UUID,
	runAt time.Time,
) error {
	if winnerID != nil {
		payload, err := json.Marshal(map[string]any{
			"raffle_id":      raffleID,
			"user_id":        *winnerID,
			"winning_number": winningNumber,
			"type":           "raffle_won",
		})
		if err != nil {
			return err
		}
		if err := tx.Notifications().CreateJob(ctx, "email", "raffle_won", payload, runAt); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(map[string]any{
		"raffle_id":      raffleID,
		"user_id":        creatorID,
		"winning_number": winningNumber,
		"type":           "raffle_completed",
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, "email", "raffle_completed", payload, runAt)
}

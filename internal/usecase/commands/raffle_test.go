//go:build unit

package commands_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/gateway"
	reqdto "rafflywin/internal/handler/dto/request"
	"rafflywin/internal/pkg/clock"
	"rafflywin/internal/pkg/config"
	"rafflywin/internal/pkg/errs"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"
	"rafflywin/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

type raffleFixture struct {
	state    *fakeState
	commands commands.RaffleCommands
	clock    *clock.MockClock
}

func newRaffleFixture() *raffleFixture {
	state := newFakeState()
	clk := clock.NewMockClock(testNow)
	cfg := config.PaymentsConfig{
		Environment: "sandbox",
		Currency:    "USD",
		PendingTTL:  24 * time.Hour,
	}
	uow := &fakeUoW{state: state}
	return &raffleFixture{
		state: state,
		clock: clk,
		commands: commands.NewRaffleCommands(
			uow,
			gateway.NewRegistry(cfg),
			&fakeRaffleQueries{state: state},
			&fakeIntentViews{state: state, views: make(map[uuid.UUID]*queries.IntentView)},
			cfg,
			clk,
		),
	}
}

func validCreateRequest() reqdto.CreateRaffleRequest {
	return reqdto.CreateRaffleRequest{
		Title:          "Signed Guitar Raffle",
		Description:    "A signed Stratocaster",
		UnitPriceCents: 500,
		Capacity:       100,
		RaffleDate:     testNow.Add(72 * time.Hour),
		Categories:     []string{"music"},
		Gateway:        "sandbox",
	}
}

// seedRaffleInPlay registers an active raffle that counts against the
// creator's limit.
func seedRaffleInPlay(state *fakeState, creatorID uuid.UUID) uuid.UUID {
	raffleID := uuid.New()
	state.raffleDomain[raffleID] = raffle.ReconstructRaffle(
		raffleID, creatorID,
		raffle.ReconstructTitle("Seeded Raffle"),
		raffle.ReconstructDescription("seeded"),
		raffle.NewMoney(500),
		100,
		testNow.Add(72*time.Hour),
		raffle.StatusActive,
		raffle.NewMoney(100), "$500",
		nil, nil,
		testNow, testNow,
	)
	state.raffleStatuses[raffleID] = raffle.StatusActive
	return raffleID
}

func requestHashOf(t *testing.T, req any) string {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestQuoteFee(t *testing.T) {
	f := newRaffleFixture()

	quote, err := f.commands.QuoteFee(500, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), quote.Fee.Cents())

	_, err = f.commands.QuoteFee(20_000, 100)
	assert.ErrorIs(t, err, errs.ErrValueExceeded)
}

func TestCreateRaffle(t *testing.T) {
	ctx := context.Background()

	t.Run("paid raffle awaits its fee payment", func(t *testing.T) {
		f := newRaffleFixture()
		result, err := f.commands.CreateRaffle(ctx, validCreateRequest(), uuid.New(), uuid.New())
		require.NoError(t, err)

		assert.False(t, result.IsReplayed)
		require.NotNil(t, result.Checkout)
		assert.NotEmpty(t, result.Checkout.CheckoutRef)
		require.NotNil(t, result.Intent)
		assert.Equal(t, string(payment.StatusAwaitingGateway), result.Intent.Status)
		assert.Equal(t, int64(100), result.Intent.AmountCents)

		require.Len(t, f.state.createdRaffles, 1)
		rf := f.state.createdRaffles[0]
		assert.Equal(t, raffle.StatusPendingPayment, f.state.raffleStatuses[rf.ID()])
		assert.Equal(t, 1, f.state.completedCalls)
		assert.Empty(t, f.state.jobs, "no activation notification before payment")
	})

	t.Run("free raffle activates in the creation transaction", func(t *testing.T) {
		f := newRaffleFixture()
		req := validCreateRequest()
		req.UnitPriceCents = 0
		req.Gateway = "paddle" // ignored: zero fee forces the free gateway

		result, err := f.commands.CreateRaffle(ctx, req, uuid.New(), uuid.New())
		require.NoError(t, err)

		assert.False(t, result.IsReplayed)
		assert.Equal(t, string(raffle.StatusActive), result.Raffle.Status)
		require.NotNil(t, result.Intent)
		assert.Equal(t, string(payment.GatewayFree), result.Intent.Gateway)
		assert.Equal(t, string(payment.StatusConfirmed), result.Intent.Status)

		require.Len(t, f.state.createdIntents, 1)
		require.NotNil(t, f.state.createdIntents[0].CheckoutRef())
		assert.NotEmpty(t, *f.state.createdIntents[0].CheckoutRef())

		require.Len(t, f.state.jobs, 1)
		assert.Equal(t, "raffle_activated", f.state.jobs[0].Topic)
	})

	t.Run("free gateway with a nonzero fee is rejected", func(t *testing.T) {
		f := newRaffleFixture()
		req := validCreateRequest()
		req.Gateway = "free"

		_, err := f.commands.CreateRaffle(ctx, req, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
		assert.Empty(t, f.state.createdRaffles)
	})

	t.Run("fourth raffle in play is rejected", func(t *testing.T) {
		f := newRaffleFixture()
		creatorID := uuid.New()
		for i := 0; i < 3; i++ {
			seedRaffleInPlay(f.state, creatorID)
		}

		_, err := f.commands.CreateRaffle(ctx, validCreateRequest(), creatorID, uuid.New())
		assert.ErrorIs(t, err, errs.ErrActiveRaffleLimit)
		assert.Empty(t, f.state.createdRaffles)
		assert.Empty(t, f.state.createdIntents)
	})

	t.Run("total value over the cap fails before any write", func(t *testing.T) {
		f := newRaffleFixture()
		req := validCreateRequest()
		req.UnitPriceCents = 20_000

		_, err := f.commands.CreateRaffle(ctx, req, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrValueExceeded)
		assert.Empty(t, f.state.createdRaffles)
		assert.Empty(t, f.state.createdIntents)
	})

	t.Run("completed key replays the original raffle", func(t *testing.T) {
		f := newRaffleFixture()
		creatorID := uuid.New()
		key := uuid.New()
		req := validCreateRequest()

		first, err := f.commands.CreateRaffle(ctx, req, creatorID, key)
		require.NoError(t, err)

		second, err := f.commands.CreateRaffle(ctx, req, creatorID, key)
		require.NoError(t, err)

		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.Raffle.ID, second.Raffle.ID)
		assert.Len(t, f.state.createdRaffles, 1, "replay must not create a second raffle")
	})

	t.Run("processing key with a different payload conflicts", func(t *testing.T) {
		f := newRaffleFixture()
		creatorID := uuid.New()
		key := uuid.New()
		other := validCreateRequest()
		other.Title = "Different Raffle"
		f.state.idem[idemKey(key, creatorID)] = &shared.IdempotencyRecord{
			Key: key, UserID: creatorID,
			Status:      "processing",
			RequestHash: requestHashOf(t, other),
		}

		_, err := f.commands.CreateRaffle(ctx, validCreateRequest(), creatorID, key)
		assert.ErrorIs(t, err, errs.ErrDuplicateRequest)
	})

	t.Run("processing key with the same payload reports in progress", func(t *testing.T) {
		f := newRaffleFixture()
		creatorID := uuid.New()
		key := uuid.New()
		req := validCreateRequest()
		f.state.idem[idemKey(key, creatorID)] = &shared.IdempotencyRecord{
			Key: key, UserID: creatorID,
			Status:      "processing",
			RequestHash: requestHashOf(t, req),
		}

		_, err := f.commands.CreateRaffle(ctx, req, creatorID, key)
		assert.ErrorIs(t, err, errs.ErrIdempotencyInProgress)
	})
}

func TestConfirmFeePayment(t *testing.T) {
	ctx := context.Background()

	seedPendingFee := func(f *raffleFixture) (raffleID, intentID, creatorID uuid.UUID) {
		raffleID = uuid.New()
		intentID = uuid.New()
		creatorID = uuid.New()
		checkoutRef := "sbx_" + intentID.String()
		f.state.intentSnaps[intentID] = &shared.IntentSnapshot{
			ID:          intentID,
			Purpose:     string(payment.PurposeRaffleCreationFee),
			RaffleID:    raffleID,
			PayerID:     creatorID,
			Quantity:    1,
			AmountCents: 100,
			Gateway:     string(payment.GatewaySandbox),
			Status:      string(payment.StatusAwaitingGateway),
			CheckoutRef: &checkoutRef,
		}
		f.state.intentStatuses[intentID] = payment.StatusAwaitingGateway
		f.state.raffleStatuses[raffleID] = raffle.StatusPendingPayment
		f.state.raffleViews[raffleID] = &queries.RaffleView{ID: raffleID, Status: string(raffle.StatusActive)}
		return raffleID, intentID, creatorID
	}

	t.Run("confirmation activates the raffle", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, intentID, creatorID := seedPendingFee(f)

		result, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: gateway.SandboxRefPrefix + "1"},
			raffleID, creatorID)
		require.NoError(t, err)

		assert.False(t, result.IsReplayed)
		assert.Equal(t, payment.StatusConfirmed, f.state.intentStatuses[intentID])
		assert.Equal(t, raffle.StatusActive, f.state.raffleStatuses[raffleID])
		require.Len(t, f.state.jobs, 1)
		assert.Equal(t, "raffle_activated", f.state.jobs[0].Topic)
	})

	t.Run("losing the confirmation race replays", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, intentID, creatorID := seedPendingFee(f)
		// A concurrent confirmation already flipped the row.
		f.state.intentStatuses[intentID] = payment.StatusConfirmed
		f.state.raffleStatuses[raffleID] = raffle.StatusActive

		result, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: gateway.SandboxRefPrefix + "2"},
			raffleID, creatorID)
		require.NoError(t, err)
		assert.True(t, result.IsReplayed)
		assert.Empty(t, f.state.jobs)
	})

	t.Run("confirmed snapshot replays without touching the gateway", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, intentID, creatorID := seedPendingFee(f)
		f.state.intentSnaps[intentID].Status = string(payment.StatusConfirmed)

		// An external ref the sandbox gateway would decline proves no
		// capture happens on replay.
		result, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: "bogus"},
			raffleID, creatorID)
		require.NoError(t, err)
		assert.True(t, result.IsReplayed)
	})

	t.Run("raffle no longer pending rolls the confirmation back", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, intentID, creatorID := seedPendingFee(f)
		f.state.raffleStatuses[raffleID] = raffle.StatusExpired

		_, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: gateway.SandboxRefPrefix + "3"},
			raffleID, creatorID)
		assert.ErrorIs(t, err, errs.ErrRaffleNotActive)
	})

	t.Run("declined capture leaves everything pending", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, intentID, creatorID := seedPendingFee(f)

		_, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: "not_a_sandbox_ref"},
			raffleID, creatorID)
		assert.ErrorIs(t, err, errs.ErrGatewayDeclined)
		assert.Equal(t, payment.StatusAwaitingGateway, f.state.intentStatuses[intentID])
		assert.Equal(t, raffle.StatusPendingPayment, f.state.raffleStatuses[raffleID])
	})

	t.Run("someone else's intent is forbidden", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, intentID, _ := seedPendingFee(f)

		_, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: gateway.SandboxRefPrefix + "4"},
			raffleID, uuid.New())
		assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	})

	t.Run("intent for another raffle is not found", func(t *testing.T) {
		f := newRaffleFixture()
		_, intentID, creatorID := seedPendingFee(f)

		_, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: intentID, ExternalRef: gateway.SandboxRefPrefix + "5"},
			uuid.New(), creatorID)
		assert.ErrorIs(t, err, errs.ErrIntentNotFound)
	})

	t.Run("unknown intent is not found", func(t *testing.T) {
		f := newRaffleFixture()
		_, err := f.commands.ConfirmFeePayment(ctx,
			reqdto.ConfirmPaymentRequest{IntentID: uuid.New(), ExternalRef: gateway.SandboxRefPrefix + "6"},
			uuid.New(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrIntentNotFound)
	})
}

func TestCancelRaffle(t *testing.T) {
	ctx := context.Background()

	seed := func(f *raffleFixture, status raffle.Status) (raffleID, creatorID uuid.UUID) {
		raffleID = uuid.New()
		creatorID = uuid.New()
		f.state.raffleSnaps[raffleID] = &shared.RaffleSnapshot{
			ID:        raffleID,
			CreatorID: creatorID,
			Status:    string(status),
		}
		f.state.raffleStatuses[raffleID] = status
		return raffleID, creatorID
	}

	t.Run("creator cancels a pending raffle", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, creatorID := seed(f, raffle.StatusPendingPayment)

		require.NoError(t, f.commands.CancelRaffle(ctx, raffleID, creatorID))
		assert.Equal(t, raffle.StatusCancelled, f.state.raffleStatuses[raffleID])
		assert.Equal(t, []uuid.UUID{raffleID}, f.state.cancelledRaffles)
	})

	t.Run("active raffle cannot be cancelled", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, creatorID := seed(f, raffle.StatusActive)

		err := f.commands.CancelRaffle(ctx, raffleID, creatorID)
		assert.ErrorIs(t, err, errs.ErrRaffleNotCancelable)
		assert.Empty(t, f.state.cancelledRaffles)
	})

	t.Run("only the creator may cancel", func(t *testing.T) {
		f := newRaffleFixture()
		raffleID, _ := seed(f, raffle.StatusPendingPayment)

		err := f.commands.CancelRaffle(ctx, raffleID, uuid.New())
		assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	})

	t.Run("unknown raffle", func(t *testing.T) {
		f := newRaffleFixture()
		err := f.commands.CancelRaffle(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrRaffleNotFound)
	})
}

//go:build unit

package commands_test

import (
	"context"
	"errors"
	"time"

	"rafflywin/internal/domain/payment"
	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/domain/ticket"
	"rafflywin/internal/domain/user"
	"rafflywin/internal/infra"
	"rafflywin/internal/infra/db"
	"rafflywin/internal/usecase/queries"
	"rafflywin/internal/usecase/shared"

	"github.com/google/uuid"
)

// In-memory stand-ins for the persistence layer. One fakeState backs every
// repository and read store so writes in a "transaction" are visible to the
// snapshot reads the commands perform, the same way committed rows would be.
type fakeState struct {
	raffleStatuses map[uuid.UUID]raffle.Status
	raffleDomain   map[uuid.UUID]*raffle.Raffle
	createdRaffles []*raffle.Raffle

	sold     map[uuid.UUID][]int
	byIntent map[uuid.UUID][]int
	inserted []*ticket.Ticket

	intentDomain     map[uuid.UUID]*payment.Intent
	intentStatuses   map[uuid.UUID]payment.Status
	createdIntents   []*payment.Intent
	cancelledRaffles []uuid.UUID

	idem           map[string]*shared.IdempotencyRecord
	completedCalls int

	cancelStaleCutoff time.Time
	expireStaleCutoff time.Time
	deleteExpiredRuns int

	winningNumbers map[uuid.UUID]int
	winners        map[uuid.UUID]*uuid.UUID

	jobs []fakeJob

	createdUsers  []*user.User
	userCreateErr error
	lastLogins    []uuid.UUID

	raffleSnaps map[uuid.UUID]*shared.RaffleSnapshot
	intentSnaps map[uuid.UUID]*shared.IntentSnapshot

	raffleViews map[uuid.UUID]*queries.RaffleView
}

type fakeJob struct {
	Kind  string
	Topic string
}

func newFakeState() *fakeState {
	return &fakeState{
		raffleStatuses: make(map[uuid.UUID]raffle.Status),
		raffleDomain:   make(map[uuid.UUID]*raffle.Raffle),
		sold:           make(map[uuid.UUID][]int),
		byIntent:       make(map[uuid.UUID][]int),
		intentDomain:   make(map[uuid.UUID]*payment.Intent),
		intentStatuses: make(map[uuid.UUID]payment.Status),
		idem:           make(map[string]*shared.IdempotencyRecord),
		winningNumbers: make(map[uuid.UUID]int),
		winners:        make(map[uuid.UUID]*uuid.UUID),
		raffleSnaps:    make(map[uuid.UUID]*shared.RaffleSnapshot),
		intentSnaps:    make(map[uuid.UUID]*shared.IntentSnapshot),
		raffleViews:    make(map[uuid.UUID]*queries.RaffleView),
	}
}

func notFound(msg string) error {
	return infra.WrapRepoErr(msg, errors.New("no rows in result set"), infra.KindNotFound)
}

func idemKey(key, userID uuid.UUID) string {
	return key.String() + "/" + userID.String()
}

// --- UnitOfWork ---

type fakeUoW struct {
	state *fakeState
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &fakeTx{state: u.state})
}

func (u *fakeUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) CommandReads() shared.CommandReads {
	return &fakeReads{state: u.state}
}

type fakeTx struct {
	state *fakeState
}

func (t *fakeTx) Raffles() shared.RaffleRepository               { return &fakeRaffleRepo{state: t.state} }
func (t *fakeTx) Tickets() shared.TicketRepository               { return &fakeTicketRepo{state: t.state} }
func (t *fakeTx) PaymentIntents() shared.PaymentIntentRepository { return &fakeIntentRepo{state: t.state} }
func (t *fakeTx) Idempotency() shared.IdempotencyRepository      { return &fakeIdemRepo{state: t.state} }
func (t *fakeTx) Notifications() shared.NotificationRepository   { return &fakeNotifRepo{state: t.state} }
func (t *fakeTx) Users() shared.UserRepository                   { return &fakeUserRepo{state: t.state} }
func (t *fakeTx) Reads() shared.CommandReads                     { return &fakeReads{state: t.state} }
func (t *fakeTx) DB() db.DBTX                                    { return nil }

// --- CommandReads ---

type fakeReads struct {
	state *fakeState
}

func (r *fakeReads) RaffleByID(_ context.Context, id uuid.UUID) (*shared.RaffleSnapshot, error) {
	snap, ok := r.state.raffleSnaps[id]
	if !ok {
		return nil, notFound("raffle not found")
	}
	return snap, nil
}

func (r *fakeReads) IntentByID(_ context.Context, id uuid.UUID) (*shared.IntentSnapshot, error) {
	snap, ok := r.state.intentSnaps[id]
	if !ok {
		return nil, notFound("intent not found")
	}
	return snap, nil
}

func (r *fakeReads) IdempotencyByKey(_ context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	rec, ok := r.state.idem[idemKey(key, userID)]
	if !ok {
		return nil, notFound("idempotency key not found")
	}
	return rec, nil
}

func (r *fakeReads) ActiveRaffleCount(_ context.Context, creatorID uuid.UUID) (int, error) {
	seen := make(map[uuid.UUID]bool)
	count := 0
	countInPlay := func(rf *raffle.Raffle) {
		if seen[rf.ID()] || rf.CreatorID() != creatorID {
			return
		}
		seen[rf.ID()] = true
		switch r.state.raffleStatuses[rf.ID()] {
		case raffle.StatusPendingPayment, raffle.StatusActive:
			count++
		}
	}
	for _, rf := range r.state.raffleDomain {
		countInPlay(rf)
	}
	for _, rf := range r.state.createdRaffles {
		countInPlay(rf)
	}
	return count, nil
}

// --- Repositories ---

type fakeRaffleRepo struct {
	state *fakeState
}

func (r *fakeRaffleRepo) Create(_ context.Context, rf *raffle.Raffle) (uuid.UUID, error) {
	r.state.createdRaffles = append(r.state.createdRaffles, rf)
	r.state.raffleStatuses[rf.ID()] = rf.Status()
	return rf.ID(), nil
}

func (r *fakeRaffleRepo) GetForUpdate(_ context.Context, id uuid.UUID) (*raffle.Raffle, error) {
	rf, ok := r.state.raffleDomain[id]
	if !ok {
		return nil, notFound("raffle not found")
	}
	return rf, nil
}

func (r *fakeRaffleRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to raffle.Status) (int64, error) {
	if r.state.raffleStatuses[id] != from {
		return 0, nil
	}
	r.state.raffleStatuses[id] = to
	return 1, nil
}

func (r *fakeRaffleRepo) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.state.expireStaleCutoff = cutoff
	var expired int64
	for id, status := range r.state.raffleStatuses {
		if status == raffle.StatusPendingPayment {
			r.state.raffleStatuses[id] = raffle.StatusExpired
			expired++
		}
	}
	return expired, nil
}

func (r *fakeRaffleRepo) DueForDraw(_ context.Context, asOf time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, rf := range r.state.raffleDomain {
		if r.state.raffleStatuses[id] == raffle.StatusActive && !rf.RaffleDate().After(asOf) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeRaffleRepo) CompleteDraw(_ context.Context, id uuid.UUID, winningNumber int, winnerID *uuid.UUID) (int64, error) {
	if r.state.raffleStatuses[id] != raffle.StatusActive {
		return 0, nil
	}
	r.state.raffleStatuses[id] = raffle.StatusCompleted
	r.state.winningNumbers[id] = winningNumber
	r.state.winners[id] = winnerID
	return 1, nil
}

type fakeTicketRepo struct {
	state *fakeState
}

func (r *fakeTicketRepo) InsertBatch(_ context.Context, tickets []*ticket.Ticket) error {
	r.state.inserted = append(r.state.inserted, tickets...)
	for _, tk := range tickets {
		r.state.sold[tk.RaffleID()] = append(r.state.sold[tk.RaffleID()], tk.Number())
		if tk.IntentID() != nil {
			r.state.byIntent[*tk.IntentID()] = append(r.state.byIntent[*tk.IntentID()], tk.Number())
		}
	}
	return nil
}

func (r *fakeTicketRepo) SoldNumbers(_ context.Context, raffleID uuid.UUID) ([]int, error) {
	return r.state.sold[raffleID], nil
}

func (r *fakeTicketRepo) NumbersByIntent(_ context.Context, intentID uuid.UUID) ([]int, error) {
	return r.state.byIntent[intentID], nil
}

func (r *fakeTicketRepo) OwnerOfNumber(_ context.Context, raffleID uuid.UUID, number int) (*uuid.UUID, error) {
	for _, tk := range r.state.inserted {
		if tk.RaffleID() == raffleID && tk.Number() == number {
			owner := tk.OwnerID()
			return &owner, nil
		}
	}
	return nil, nil
}

type fakeIntentRepo struct {
	state *fakeState
}

func (r *fakeIntentRepo) Create(_ context.Context, intent *payment.Intent) error {
	// The payment_intents.checkout_ref column is NOT NULL.
	if intent.CheckoutRef() == nil {
		return infra.WrapRepoErr("failed to create payment intent",
			errors.New("null value in column \"checkout_ref\" violates not-null constraint (SQLSTATE 23502)"))
	}
	r.state.createdIntents = append(r.state.createdIntents, intent)
	r.state.intentDomain[intent.ID()] = intent
	r.state.intentStatuses[intent.ID()] = intent.Status()
	return nil
}

func (r *fakeIntentRepo) GetForUpdate(_ context.Context, id uuid.UUID) (*payment.Intent, error) {
	intent, ok := r.state.intentDomain[id]
	if !ok {
		return nil, notFound("intent not found")
	}
	return intent, nil
}

func (r *fakeIntentRepo) SetAwaitingGateway(_ context.Context, id uuid.UUID, _ string) error {
	r.state.intentStatuses[id] = payment.StatusAwaitingGateway
	return nil
}

func (r *fakeIntentRepo) ConfirmIfPending(_ context.Context, id uuid.UUID, _ string) (bool, error) {
	switch r.state.intentStatuses[id] {
	case payment.StatusCreated, payment.StatusAwaitingGateway:
		r.state.intentStatuses[id] = payment.StatusConfirmed
		return true, nil
	default:
		return false, nil
	}
}

func (r *fakeIntentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status payment.Status) error {
	r.state.intentStatuses[id] = status
	return nil
}

func (r *fakeIntentRepo) CancelByRaffle(_ context.Context, raffleID uuid.UUID) error {
	r.state.cancelledRaffles = append(r.state.cancelledRaffles, raffleID)
	return nil
}

func (r *fakeIntentRepo) CancelStale(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	r.state.cancelStaleCutoff = cutoff
	var raffleIDs []uuid.UUID
	for id, status := range r.state.intentStatuses {
		if status == payment.StatusCreated || status == payment.StatusAwaitingGateway {
			r.state.intentStatuses[id] = payment.StatusCancelled
			if intent, ok := r.state.intentDomain[id]; ok {
				raffleIDs = append(raffleIDs, intent.RaffleID())
			}
		}
	}
	return raffleIDs, nil
}

type fakeIdemRepo struct {
	state *fakeState
}

func (r *fakeIdemRepo) TryInsert(_ context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	k := idemKey(key, userID)
	if _, exists := r.state.idem[k]; exists {
		// Mirrors ON CONFLICT DO NOTHING.
		return false, nil
	}
	r.state.idem[k] = &shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Status:      "processing",
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r *fakeIdemRepo) UpdateStatusCompleted(_ context.Context, key, userID uuid.UUID, _ string, resultID uuid.UUID) error {
	r.state.completedCalls++
	rec, ok := r.state.idem[idemKey(key, userID)]
	if !ok {
		return notFound("idempotency key not found")
	}
	rec.Status = "completed"
	id := resultID
	rec.ResultID = &id
	return nil
}

func (r *fakeIdemRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.state.deleteExpiredRuns++
	return 0, nil
}

type fakeNotifRepo struct {
	state *fakeState
}

func (r *fakeNotifRepo) CreateJob(_ context.Context, kind, topic string, _ []byte, _ time.Time) error {
	r.state.jobs = append(r.state.jobs, fakeJob{Kind: kind, Topic: topic})
	return nil
}

type fakeUserRepo struct {
	state *fakeState
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) (uuid.UUID, error) {
	if r.state.userCreateErr != nil {
		return uuid.Nil, r.state.userCreateErr
	}
	r.state.createdUsers = append(r.state.createdUsers, u)
	return u.ID(), nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	r.state.lastLogins = append(r.state.lastLogins, userID)
	return nil
}

// --- Read-side fakes ---

// fakeIntentViews serves the IntentViewStore from intents written through the
// fake repositories, falling back to explicitly seeded views.
type fakeIntentViews struct {
	state *fakeState
	views map[uuid.UUID]*queries.IntentView
}

func (s *fakeIntentViews) FindByID(_ context.Context, id uuid.UUID) (*queries.IntentView, error) {
	if view, ok := s.views[id]; ok {
		return view, nil
	}
	intent, ok := s.state.intentDomain[id]
	if !ok {
		return nil, notFound("intent not found")
	}
	status := intent.Status()
	if st, ok := s.state.intentStatuses[id]; ok {
		status = st
	}
	view := &queries.IntentView{
		ID:          intent.ID(),
		Purpose:     string(intent.Purpose()),
		RaffleID:    intent.RaffleID(),
		PayerID:     intent.PayerID(),
		Quantity:    intent.Quantity(),
		AmountCents: intent.Amount().Cents(),
		Currency:    intent.Currency(),
		Gateway:     string(intent.Gateway()),
		Status:      string(status),
		CheckoutRef: intent.CheckoutRef(),
		ExternalRef: intent.ExternalRef(),
	}
	return view, nil
}

type fakeRaffleQueries struct {
	state *fakeState
}

func (q *fakeRaffleQueries) GetByID(_ context.Context, id uuid.UUID) (*queries.RaffleView, error) {
	if view, ok := q.state.raffleViews[id]; ok {
		return view, nil
	}
	for _, rf := range q.state.createdRaffles {
		if rf.ID() == id {
			return &queries.RaffleView{
				ID:               rf.ID(),
				CreatorID:        rf.CreatorID(),
				Title:            rf.Title().String(),
				UnitPriceCents:   rf.UnitPrice().Cents(),
				Capacity:         rf.Capacity(),
				RaffleDate:       rf.RaffleDate(),
				Status:           string(q.state.raffleStatuses[rf.ID()]),
				CreationFeeCents: rf.CreationFee().Cents(),
				FeeTier:          rf.FeeTier(),
			}, nil
		}
	}
	return nil, queries.ErrRaffleNotFound
}

func (q *fakeRaffleQueries) List(_ context.Context, _ queries.RaffleFilter, _ *queries.Cursor, _ int) ([]*queries.RaffleListItem, *queries.Cursor, error) {
	return nil, nil, nil
}

func (q *fakeRaffleQueries) ListByCreator(_ context.Context, _ uuid.UUID, _ int) ([]*queries.RaffleListItem, error) {
	return nil, nil
}

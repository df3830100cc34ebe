//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rafflywin/internal/domain/raffle"
	"rafflywin/internal/domain/user"
	"rafflywin/internal/handler/api"
	reqdto "rafflywin/internal/handler/dto/request"
	resdto "rafflywin/internal/handler/dto/response"
	"rafflywin/internal/pkg/errs"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubRaffleCommands struct {
	quoteFee   func(unitPriceCents int64, capacity int) (raffle.FeeQuote, error)
	create     func(ctx context.Context, req reqdto.CreateRaffleRequest, creatorID, idempotencyKey uuid.UUID) (*commands.CreateRaffleResult, error)
	confirmFee func(ctx context.Context, req reqdto.ConfirmPaymentRequest, raffleID, actorID uuid.UUID) (*commands.ConfirmRaffleResult, error)
	cancel     func(ctx context.Context, raffleID, actorID uuid.UUID) error
}

func (s *stubRaffleCommands) QuoteFee(unitPriceCents int64, capacity int) (raffle.FeeQuote, error) {
	return s.quoteFee(unitPriceCents, capacity)
}

func (s *stubRaffleCommands) CreateRaffle(ctx context.Context, req reqdto.CreateRaffleRequest, creatorID, idempotencyKey uuid.UUID) (*commands.CreateRaffleResult, error) {
	return s.create(ctx, req, creatorID, idempotencyKey)
}

func (s *stubRaffleCommands) ConfirmFeePayment(ctx context.Context, req reqdto.ConfirmPaymentRequest, raffleID, actorID uuid.UUID) (*commands.ConfirmRaffleResult, error) {
	return s.confirmFee(ctx, req, raffleID, actorID)
}

func (s *stubRaffleCommands) CancelRaffle(ctx context.Context, raffleID, actorID uuid.UUID) error {
	return s.cancel(ctx, raffleID, actorID)
}

type stubRaffleQueries struct {
	getByID       func(ctx context.Context, id uuid.UUID) (*queries.RaffleView, error)
	list          func(ctx context.Context, filter queries.RaffleFilter, after *queries.Cursor, limit int) ([]*queries.RaffleListItem, *queries.Cursor, error)
	listByCreator func(ctx context.Context, creatorID uuid.UUID, limit int) ([]*queries.RaffleListItem, error)
}

func (s *stubRaffleQueries) GetByID(ctx context.Context, id uuid.UUID) (*queries.RaffleView, error) {
	return s.getByID(ctx, id)
}

func (s *stubRaffleQueries) List(ctx context.Context, filter queries.RaffleFilter, after *queries.Cursor, limit int) ([]*queries.RaffleListItem, *queries.Cursor, error) {
	return s.list(ctx, filter, after, limit)
}

func (s *stubRaffleQueries) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]*queries.RaffleListItem, error) {
	return s.listByCreator(ctx, creatorID, limit)
}

type RaffleHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	commands *stubRaffleCommands
	queries  *stubRaffleQueries
	userID   uuid.UUID
}

func (s *RaffleHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.userID = uuid.New()

	s.commands = &stubRaffleCommands{}
	s.queries = &stubRaffleQueries{}
	handler := api.NewRaffleHandler(s.commands, s.queries)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Set("user_role", user.RoleCreator)
		c.Next()
	}

	s.router.POST("/raffles/quote-fee", handler.QuoteFee)
	s.router.POST("/raffles", authMiddleware, handler.CreateRaffle)
	s.router.GET("/raffles", handler.ListRaffles)
	s.router.GET("/raffles/mine", authMiddleware, handler.ListMyRaffles)
	s.router.POST("/raffles/:id/confirm-payment", authMiddleware, handler.ConfirmFeePayment)
	s.router.POST("/raffles/:id/cancel", authMiddleware, handler.CancelRaffle)
	s.router.GET("/raffles/:id", handler.GetRaffle)
}

func TestRaffleHandlerSuite(t *testing.T) {
	suite.Run(t, new(RaffleHandlerTestSuite))
}

func (s *RaffleHandlerTestSuite) perform(method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RaffleHandlerTestSuite) authHeaders(idempotencyKey string) map[string]string {
	h := map[string]string{"Authorization": "Bearer test-token"}
	if idempotencyKey != "" {
		h["Idempotency-Key"] = idempotencyKey
	}
	return h
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title":            "Vintage camera raffle",
		"description":      "A mint condition rangefinder",
		"unit_price_cents": 500,
		"capacity":         100,
		"raffle_date":      time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"gateway":          "sandbox",
	}
}

func raffleViewFixture(id uuid.UUID, status string) *queries.RaffleView {
	now := time.Now().UTC()
	return &queries.RaffleView{
		ID:               id,
		CreatorID:        uuid.New(),
		CreatorName:      "Alice",
		Title:            "Vintage camera raffle",
		Description:      "A mint condition rangefinder",
		UnitPriceCents:   500,
		Capacity:         100,
		SoldCount:        0,
		RaffleDate:       now.Add(72 * time.Hour),
		Status:           status,
		CreationFeeCents: 100,
		FeeTier:          "$500",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ================================================================================
// TestQuoteFee
// ================================================================================

func (s *RaffleHandlerTestSuite) TestQuoteFee() {
	url := "/raffles/quote-fee"

	s.Run("success: returns quote", func() {
		s.commands.quoteFee = func(unitPriceCents int64, capacity int) (raffle.FeeQuote, error) {
			s.Equal(int64(500), unitPriceCents)
			s.Equal(100, capacity)
			return raffle.FeeQuote{
				Fee:        raffle.NewMoney(100),
				Tier:       "$500",
				TotalValue: raffle.NewMoney(50_000),
			}, nil
		}

		rec := s.perform(http.MethodPost, url, map[string]any{"unit_price_cents": 500, "capacity": 100}, nil)

		s.Equal(http.StatusOK, rec.Code)
		var body resdto.FeeQuoteResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(int64(100), body.FeeCents)
		s.Equal("$500", body.Tier)
		s.Equal(int64(50_000), body.TotalValueCents)
	})

	s.Run("value over fee cap: returns 422", func() {
		s.commands.quoteFee = func(int64, int) (raffle.FeeQuote, error) {
			return raffle.FeeQuote{}, errs.ErrValueExceeded
		}

		rec := s.perform(http.MethodPost, url, map[string]any{"unit_price_cents": 200_000, "capacity": 100}, nil)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("missing capacity: returns 400", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"unit_price_cents": 500}, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// ================================================================================
// TestCreateRaffle
// ================================================================================

func (s *RaffleHandlerTestSuite) TestCreateRaffle() {
	url := "/raffles"

	newResult := func(replayed bool) *commands.CreateRaffleResult {
		raffleID := uuid.New()
		checkoutRef := "TEST_SANDBOX_abc"
		return &commands.CreateRaffleResult{
			Raffle: raffleViewFixture(raffleID, "pending_payment"),
			Intent: &queries.IntentView{
				ID:          uuid.New(),
				Purpose:     "raffle_creation_fee",
				RaffleID:    raffleID,
				PayerID:     s.userID,
				Quantity:    1,
				AmountCents: 100,
				Currency:    "USD",
				Gateway:     "sandbox",
				Status:      "awaiting_gateway",
				CheckoutRef: &checkoutRef,
				CreatedAt:   time.Now().UTC(),
			},
			IsReplayed: replayed,
		}
	}

	s.Run("unauthenticated: returns 401", func() {
		rec := s.perform(http.MethodPost, url, validCreateBody(), nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("missing idempotency key: returns 400", func() {
		rec := s.perform(http.MethodPost, url, validCreateBody(), s.authHeaders(""))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "idempotency key required")
	})

	s.Run("malformed idempotency key: returns 400", func() {
		rec := s.perform(http.MethodPost, url, validCreateBody(), s.authHeaders("not-a-uuid"))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "invalid idempotency key format")
	})

	s.Run("success: returns 201 for fresh request", func() {
		key := uuid.New()
		s.commands.create = func(_ context.Context, req reqdto.CreateRaffleRequest, creatorID, idempotencyKey uuid.UUID) (*commands.CreateRaffleResult, error) {
			s.Equal(s.userID, creatorID)
			s.Equal(key, idempotencyKey)
			s.Equal("sandbox", req.Gateway)
			return newResult(false), nil
		}

		rec := s.perform(http.MethodPost, url, validCreateBody(), s.authHeaders(key.String()))

		s.Equal(http.StatusCreated, rec.Code)
		var body resdto.CreateRaffleResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.False(body.Replayed)
		s.Equal("pending_payment", body.Raffle.Status)
		s.Require().NotNil(body.Intent)
		s.Equal("awaiting_gateway", body.Intent.Status)
	})

	s.Run("replayed: returns 200 with same payload", func() {
		s.commands.create = func(context.Context, reqdto.CreateRaffleRequest, uuid.UUID, uuid.UUID) (*commands.CreateRaffleResult, error) {
			return newResult(true), nil
		}

		rec := s.perform(http.MethodPost, url, validCreateBody(), s.authHeaders(uuid.NewString()))

		s.Equal(http.StatusOK, rec.Code)
		var body resdto.CreateRaffleResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.True(body.Replayed)
	})

	s.Run("validation: capacity below minimum returns 400", func() {
		reqBody := validCreateBody()
		reqBody["capacity"] = 5
		rec := s.perform(http.MethodPost, url, reqBody, s.authHeaders(uuid.NewString()))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("validation: unknown gateway returns 400", func() {
		reqBody := validCreateBody()
		reqBody["gateway"] = "stripe"
		rec := s.perform(http.MethodPost, url, reqBody, s.authHeaders(uuid.NewString()))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	commandErrors := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "value exceeded", err: errs.ErrValueExceeded, expectCode: http.StatusUnprocessableEntity},
		{name: "domain validation", err: errs.ErrDomainValidation, expectCode: http.StatusUnprocessableEntity},
		{name: "duplicate request", err: errs.ErrDuplicateRequest, expectCode: http.StatusConflict},
		{name: "active raffle limit", err: errs.ErrActiveRaffleLimit, expectCode: http.StatusConflict},
		{name: "idempotency in progress", err: errs.ErrIdempotencyInProgress, expectCode: http.StatusConflict},
		{name: "gateway declined", err: errs.ErrGatewayDeclined, expectCode: http.StatusPaymentRequired},
		{name: "gateway unavailable", err: errs.ErrGatewayUnavailable, expectCode: http.StatusBadGateway},
	}

	for _, tc := range commandErrors {
		s.Run("command error: "+tc.name, func() {
			s.commands.create = func(context.Context, reqdto.CreateRaffleRequest, uuid.UUID, uuid.UUID) (*commands.CreateRaffleResult, error) {
				return nil, tc.err
			}

			rec := s.perform(http.MethodPost, url, validCreateBody(), s.authHeaders(uuid.NewString()))
			s.Equal(tc.expectCode, rec.Code)
		})
	}
}

// ================================================================================
// TestConfirmFeePayment
// ================================================================================

func (s *RaffleHandlerTestSuite) TestConfirmFeePayment() {
	raffleID := uuid.New()
	url := "/raffles/" + raffleID.String() + "/confirm-payment"
	confirmBody := map[string]any{"intent_id": uuid.NewString(), "external_ref": "TEST_SANDBOX_abc"}

	s.Run("success: returns 200 with activated raffle", func() {
		s.commands.confirmFee = func(_ context.Context, req reqdto.ConfirmPaymentRequest, gotRaffleID, actorID uuid.UUID) (*commands.ConfirmRaffleResult, error) {
			s.Equal(raffleID, gotRaffleID)
			s.Equal(s.userID, actorID)
			s.Equal("TEST_SANDBOX_abc", req.ExternalRef)
			return &commands.ConfirmRaffleResult{Raffle: raffleViewFixture(raffleID, "active")}, nil
		}

		rec := s.perform(http.MethodPost, url, confirmBody, s.authHeaders(""))

		s.Equal(http.StatusOK, rec.Code)
		var body resdto.ConfirmRaffleResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("active", body.Raffle.Status)
		s.False(body.Replayed)
	})

	s.Run("invalid raffle id: returns 400", func() {
		rec := s.perform(http.MethodPost, "/raffles/not-a-uuid/confirm-payment", confirmBody, s.authHeaders(""))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing external ref: returns 400", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{"intent_id": uuid.NewString()}, s.authHeaders(""))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	commandErrors := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "intent not found", err: errs.ErrIntentNotFound, expectCode: http.StatusNotFound},
		{name: "permission denied", err: errs.ErrPermissionDenied, expectCode: http.StatusForbidden},
		{name: "raffle no longer active", err: errs.ErrRaffleNotActive, expectCode: http.StatusConflict},
		{name: "gateway declined", err: errs.ErrGatewayDeclined, expectCode: http.StatusPaymentRequired},
	}

	for _, tc := range commandErrors {
		s.Run("command error: "+tc.name, func() {
			s.commands.confirmFee = func(context.Context, reqdto.ConfirmPaymentRequest, uuid.UUID, uuid.UUID) (*commands.ConfirmRaffleResult, error) {
				return nil, tc.err
			}

			rec := s.perform(http.MethodPost, url, confirmBody, s.authHeaders(""))
			s.Equal(tc.expectCode, rec.Code)
		})
	}
}

// ================================================================================
// TestCancelRaffle
// ================================================================================

func (s *RaffleHandlerTestSuite) TestCancelRaffle() {
	raffleID := uuid.New()
	url := "/raffles/" + raffleID.String() + "/cancel"

	s.Run("success: returns 204", func() {
		s.commands.cancel = func(_ context.Context, gotRaffleID, actorID uuid.UUID) error {
			s.Equal(raffleID, gotRaffleID)
			s.Equal(s.userID, actorID)
			return nil
		}

		rec := s.perform(http.MethodPost, url, nil, s.authHeaders(""))
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("invalid raffle id: returns 400", func() {
		rec := s.perform(http.MethodPost, "/raffles/not-a-uuid/cancel", nil, s.authHeaders(""))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	commandErrors := []struct {
		name       string
		err        error
		expectCode int
	}{
		{name: "not found", err: errs.ErrRaffleNotFound, expectCode: http.StatusNotFound},
		{name: "not the creator", err: errs.ErrPermissionDenied, expectCode: http.StatusForbidden},
		{name: "already active", err: errs.ErrRaffleNotCancelable, expectCode: http.StatusConflict},
	}

	for _, tc := range commandErrors {
		s.Run("command error: "+tc.name, func() {
			s.commands.cancel = func(context.Context, uuid.UUID, uuid.UUID) error {
				return tc.err
			}

			rec := s.perform(http.MethodPost, url, nil, s.authHeaders(""))
			s.Equal(tc.expectCode, rec.Code)
		})
	}
}

// ================================================================================
// TestGetRaffle / TestListRaffles
// ================================================================================

func (s *RaffleHandlerTestSuite) TestGetRaffle() {
	raffleID := uuid.New()

	s.Run("success: returns raffle view", func() {
		s.queries.getByID = func(_ context.Context, id uuid.UUID) (*queries.RaffleView, error) {
			s.Equal(raffleID, id)
			return raffleViewFixture(raffleID, "active"), nil
		}

		rec := s.perform(http.MethodGet, "/raffles/"+raffleID.String(), nil, nil)

		s.Equal(http.StatusOK, rec.Code)
		var body resdto.RaffleResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(raffleID, body.ID)
		s.Equal("active", body.Status)
	})

	s.Run("not found: returns 404", func() {
		s.queries.getByID = func(context.Context, uuid.UUID) (*queries.RaffleView, error) {
			return nil, queries.ErrRaffleNotFound
		}

		rec := s.perform(http.MethodGet, "/raffles/"+uuid.NewString(), nil, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("invalid id: returns 400", func() {
		rec := s.perform(http.MethodGet, "/raffles/not-a-uuid", nil, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RaffleHandlerTestSuite) TestListRaffles() {
	s.Run("success: returns page with cursor", func() {
		raffleID := uuid.New()
		s.queries.list = func(_ context.Context, filter queries.RaffleFilter, after *queries.Cursor, limit int) ([]*queries.RaffleListItem, *queries.Cursor, error) {
			s.Equal("active", filter.Status)
			s.Nil(after)
			s.Equal(10, limit)
			items := []*queries.RaffleListItem{{
				ID:             raffleID,
				Title:          "Vintage camera raffle",
				UnitPriceCents: 500,
				Capacity:       100,
				Status:         "active",
			}}
			return items, &queries.Cursor{After: "next-page"}, nil
		}

		rec := s.perform(http.MethodGet, "/raffles?status=active&limit=10", nil, nil)

		s.Equal(http.StatusOK, rec.Code)
		var body resdto.RaffleListPageResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Require().Len(body.Items, 1)
		s.Equal(raffleID, body.Items[0].ID)
		s.Equal("next-page", body.NextCursor)
	})

	s.Run("bad cursor: returns 400", func() {
		s.queries.list = func(context.Context, queries.RaffleFilter, *queries.Cursor, int) ([]*queries.RaffleListItem, *queries.Cursor, error) {
			return nil, nil, errs.New("invalid cursor encoding")
		}

		rec := s.perform(http.MethodGet, "/raffles?after=garbage", nil, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-numeric limit: returns 400", func() {
		rec := s.perform(http.MethodGet, "/raffles?limit=ten", nil, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RaffleHandlerTestSuite) TestListMyRaffles() {
	s.Run("success: returns creator raffles", func() {
		s.queries.listByCreator = func(_ context.Context, creatorID uuid.UUID, limit int) ([]*queries.RaffleListItem, error) {
			s.Equal(s.userID, creatorID)
			s.Equal(5, limit)
			return []*queries.RaffleListItem{{ID: uuid.New(), Title: "Mine", Status: "pending_payment"}}, nil
		}

		rec := s.perform(http.MethodGet, "/raffles/mine?limit=5", nil, s.authHeaders(""))

		s.Equal(http.StatusOK, rec.Code)
		var body []*resdto.RaffleListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Require().Len(body, 1)
		s.Equal("Mine", body[0].Title)
	})

	s.Run("unauthenticated: returns 401", func() {
		rec := s.perform(http.MethodGet, "/raffles/mine", nil, nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

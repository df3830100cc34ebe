package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "rafflywin/internal/handler/dto/request"
	resdto "rafflywin/internal/handler/dto/response"
	"rafflywin/internal/handler/middleware"
	"rafflywin/internal/pkg/errs"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RaffleHandler struct {
	raffleCommands commands.RaffleCommands
	raffleQueries  queries.RaffleQueries
}

func NewRaffleHandler(raffleCommands commands.RaffleCommands, raffleQueries queries.RaffleQueries) *RaffleHandler {
	return &RaffleHandler{
		raffleCommands: raffleCommands,
		raffleQueries:  raffleQueries,
	}
}

// @Summary Quote creation fee
// @Description Preview the creation fee for a raffle of the given unit price and capacity
// @Tags raffles
// @Accept json
// @Produce json
// @Param request body reqdto.QuoteFeeRequest true "Fee quote request"
// @Success 200 {object} resdto.FeeQuoteResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /raffles/quote-fee [post]
func (h *RaffleHandler) QuoteFee(c *gin.Context) {
	var req reqdto.QuoteFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	quote, err := h.raffleCommands.QuoteFee(req.UnitPriceCents, req.Capacity)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValueExceeded):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Total value exceeds the maximum the fee schedule covers",
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid fee quote parameters",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromFeeQuote(quote))
}

// @Summary Create raffle
// @Description Create a raffle; a nonzero creation fee leaves it pending payment
// @Tags raffles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateRaffleRequest true "Raffle creation request"
// @Success 201 {object} resdto.CreateRaffleResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /raffles [post]
func (h *RaffleHandler) CreateRaffle(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	var req reqdto.CreateRaffleRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.raffleCommands.CreateRaffle(c.Request.Context(), req, userID, idempotencyKey)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCreateRaffleResult(result))
}

// @Summary Confirm creation fee payment
// @Description Confirm the creation fee payment and activate the raffle
// @Tags raffles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Raffle ID"
// @Param request body reqdto.ConfirmPaymentRequest true "Payment confirmation"
// @Success 200 {object} resdto.ConfirmRaffleResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /raffles/{id}/confirm-payment [post]
func (h *RaffleHandler) ConfirmFeePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid raffle ID format",
		})
		return
	}

	var req reqdto.ConfirmPaymentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.raffleCommands.ConfirmFeePayment(c.Request.Context(), req, raffleID, userID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromConfirmRaffleResult(result))
}

// @Summary Cancel raffle
// @Description Cancel a raffle that is still awaiting its creation fee payment
// @Tags raffles
// @Security BearerAuth
// @Param id path string true "Raffle ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /raffles/{id}/cancel [post]
func (h *RaffleHandler) CancelRaffle(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid raffle ID format",
		})
		return
	}

	if err := h.raffleCommands.CancelRaffle(c.Request.Context(), raffleID, userID); err != nil {
		switch {
		case errors.Is(err, errs.ErrRaffleNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Raffle not found",
			})
		case errors.Is(err, errs.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the creator can cancel a raffle",
			})
		case errors.Is(err, errs.ErrRaffleNotCancelable):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Raffle can only be cancelled while awaiting payment",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List raffles
// @Description List raffles with optional status and category filters
// @Tags raffles
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param after query string false "Pagination cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.RaffleListPageResponse
// @Failure 400 {object} map[string]string
// @Router /raffles [get]
func (h *RaffleHandler) ListRaffles(c *gin.Context) {
	filter := queries.RaffleFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = parsed
	}

	var after *queries.Cursor
	if afterStr := c.Query("after"); afterStr != "" {
		after = &queries.Cursor{After: afterStr}
	}

	items, next, err := h.raffleQueries.List(c.Request.Context(), filter, after, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid list parameters",
		})
		return
	}

	page := &resdto.RaffleListPageResponse{
		Items: make([]*resdto.RaffleListResponse, len(items)),
	}
	for i, item := range items {
		page.Items[i] = resdto.FromRaffleListItem(item)
	}
	if next != nil {
		page.NextCursor = next.After
	}

	c.JSON(http.StatusOK, page)
}

// @Summary Get raffle
// @Description Get raffle details by ID
// @Tags raffles
// @Produce json
// @Param id path string true "Raffle ID"
// @Success 200 {object} resdto.RaffleResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /raffles/{id} [get]
func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	raffleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid raffle ID format",
		})
		return
	}

	view, err := h.raffleQueries.GetByID(c.Request.Context(), raffleID)
	if err != nil {
		if errors.Is(err, queries.ErrRaffleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Raffle not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromRaffleView(view))
}

// @Summary List my raffles
// @Description List raffles created by the current user
// @Tags raffles
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Success 200 {array} resdto.RaffleListResponse
// @Failure 401 {object} map[string]string
// @Router /raffles/mine [get]
func (h *RaffleHandler) ListMyRaffles(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	items, err := h.raffleQueries.ListByCreator(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	result := make([]*resdto.RaffleListResponse, len(items))
	for i, item := range items {
		result[i] = resdto.FromRaffleListItem(item)
	}
	c.JSON(http.StatusOK, result)
}

func (h *RaffleHandler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrRaffleNotFound), errors.Is(err, errs.ErrIntentNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
		})
	case errors.Is(err, errs.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Permission denied",
		})
	case errors.Is(err, errs.ErrValueExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Total value exceeds the maximum the fee schedule covers",
		})
	case errors.Is(err, errs.ErrRaffleNotActive):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Raffle is no longer awaiting payment",
		})
	case errors.Is(err, errs.ErrActiveRaffleLimit):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Active raffle limit reached",
		})
	case errors.Is(err, errs.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Duplicate request with different parameters",
		})
	case errors.Is(err, errs.ErrIdempotencyInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Request is currently being processed",
		})
	case errors.Is(err, errs.ErrGatewayDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Payment was declined",
		})
	case errors.Is(err, errs.ErrGatewayCancelled):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Payment was cancelled",
		})
	case errors.Is(err, errs.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Payment gateway unavailable",
		})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Validation failed",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errs.ErrIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "rafflywin/internal/handler/dto/request"
	resdto "rafflywin/internal/handler/dto/response"
	"rafflywin/internal/handler/httperr"
	"rafflywin/internal/handler/middleware"
	"rafflywin/internal/pkg/errs"
	"rafflywin/internal/usecase/commands"
	"rafflywin/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketCommands commands.TicketCommands
	ticketQueries  queries.TicketQueries
}

func NewTicketHandler(ticketCommands commands.TicketCommands, ticketQueries queries.TicketQueries) *TicketHandler {
	return &TicketHandler{
		ticketCommands: ticketCommands,
		ticketQueries:  ticketQueries,
	}
}

// @Summary Purchase tickets
// @Description Start a ticket purchase; free raffles grant numbers immediately
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.PurchaseTicketsRequest true "Purchase request"
// @Success 201 {object} resdto.PurchaseResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 402 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /tickets/purchase [post]
func (h *TicketHandler) Purchase(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error", nil)
		return
	}

	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}

	var req reqdto.PurchaseTicketsRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.ticketCommands.Purchase(c.Request.Context(), req, userID, idempotencyKey)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromPurchaseResult(result))
}

// @Summary Confirm ticket payment
// @Description Confirm a ticket purchase payment and draw the ticket numbers
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ConfirmPaymentRequest true "Payment confirmation"
// @Success 200 {object} resdto.ConfirmPurchaseResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 402 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /tickets/confirm-payment [post]
func (h *TicketHandler) ConfirmPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error", nil)
		return
	}

	var req reqdto.ConfirmPaymentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.ticketCommands.ConfirmPayment(c.Request.Context(), req, userID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromConfirmPurchaseResult(result))
}

// @Summary List my tickets
// @Description List tickets owned by the current user
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Success 200 {array} resdto.TicketResponse
// @Failure 401 {object} httperr.Response
// @Router /tickets/mine [get]
func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	views, err := h.ticketQueries.ListByOwner(c.Request.Context(), userID, limit)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	result := make([]*resdto.TicketResponse, len(views))
	for i, v := range views {
		result[i] = resdto.FromTicketView(v)
	}
	c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrRaffleNotFound), errors.Is(err, errs.ErrIntentNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errors.Is(err, errs.ErrPermissionDenied):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Permission denied", nil)
	case errors.Is(err, errs.ErrRaffleNotActive):
		httperr.AbortWithError(c, http.StatusConflict, err, "Raffle is not open for ticket sales", nil)
	case errors.Is(err, errs.ErrSoldOut):
		httperr.AbortWithError(c, http.StatusConflict, err, "Raffle is sold out", nil)
	case errors.Is(err, errs.ErrInsufficientTickets):
		httperr.AbortWithError(c, http.StatusConflict, err, "Not enough tickets remaining", nil)
	case errors.Is(err, errs.ErrDuplicateRequest):
		httperr.AbortWithError(c, http.StatusConflict, err, "Duplicate request with different parameters", nil)
	case errors.Is(err, errs.ErrIdempotencyInProgress):
		httperr.AbortWithError(c, http.StatusConflict, err, "Request is currently being processed", nil)
	case errors.Is(err, errs.ErrGatewayDeclined):
		httperr.AbortWithError(c, http.StatusPaymentRequired, err, "Payment was declined", nil)
	case errors.Is(err, errs.ErrGatewayCancelled):
		httperr.AbortWithError(c, http.StatusPaymentRequired, err, "Payment was cancelled", nil)
	case errors.Is(err, errs.ErrGatewayUnavailable):
		httperr.AbortWithError(c, http.StatusBadGateway, err, "Payment gateway unavailable", nil)
	case errors.Is(err, errs.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

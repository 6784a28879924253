package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "resale-market/internal/handler/dto/request"
	resdto "resale-market/internal/handler/dto/response"
	"resale-market/internal/handler/httperr"
	"resale-market/internal/handler/middleware"
	"resale-market/internal/pkg/errs"
	"resale-market/internal/usecase/commands"
	"resale-market/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderCommands commands.OrderCommands
	orderQueries  queries.OrderQueries
}

func NewOrderHandler(orderCommands commands.OrderCommands, orderQueries queries.OrderQueries) *OrderHandler {
	return &OrderHandler{
		orderCommands: orderCommands,
		orderQueries:  orderQueries,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	buyerID, ok := middleware.GetBuyerID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("buyer id missing from context"), "Internal server error", nil)
		return
	}

	var req reqdto.CreateOrderRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	view, err := h.orderCommands.CreateOrder(c.Request.Context(), buyerID, req.ToInput())
	if err != nil {
		status, msg := createOrderError(err)
		httperr.AbortWithError(c, status, err, msg, nil)
		return
	}

	response, err := resdto.FromOrderView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusCreated, response)
}

func createOrderError(err error) (int, string) {
	switch {
	case errors.Is(err, commands.ErrEmptyOrder):
		return http.StatusBadRequest, "Order must contain at least one item"
	case errors.Is(err, commands.ErrInvalidQuantity):
		return http.StatusBadRequest, "Item quantity must be positive"
	case errors.Is(err, commands.ErrMixedCurrency):
		return http.StatusBadRequest, "All order items must share one currency"
	case errors.Is(err, commands.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, commands.ErrProductUnavailable):
		return http.StatusUnprocessableEntity, "Product is not available for purchase"
	case errors.Is(err, commands.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient stock"
	case errors.Is(err, commands.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "Payment was declined"
	case errors.Is(err, commands.ErrTransactionTimeout):
		return http.StatusGatewayTimeout, "Order processing timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	buyerID, ok := middleware.GetBuyerID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("buyer id missing from context"), "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order ID format", nil)
		return
	}

	view, err := h.orderQueries.GetByID(c.Request.Context(), buyerID, id)
	if err != nil {
		if errors.Is(err, queries.ErrOrderNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	response, err := resdto.FromOrderView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	buyerID, ok := middleware.GetBuyerID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("buyer id missing from context"), "Internal server error", nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	var after *queries.Cursor
	if raw := c.Query("cursor"); raw != "" {
		after = &queries.Cursor{After: raw}
	}

	items, next, err := h.orderQueries.ListByBuyer(c.Request.Context(), buyerID, after, limit)
	if err != nil {
		if errors.Is(err, queries.ErrInvalidCursor) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cursor", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	var nextCursor *string
	if next != nil {
		nextCursor = &next.After
	}

	response, err := resdto.FromOrderList(items, nextCursor)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, response)
}

package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitOrder handles both POST /v1/orders and POST /v1/stop-orders; the
// kind field alone determines whether the engine matches immediately or
// arms a conditional order.
func (h *Handler) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "malformed order request", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "order request failed validation", err)
		return
	}

	submitReq := engine.SubmitRequest{
		Symbol:   req.Symbol,
		Side:     model.Side(req.Side),
		Kind:     model.Kind(req.Kind),
		Quantity: req.Quantity,
	}
	if req.LimitPrice != nil {
		submitReq.HasLimitPrice = true
		submitReq.LimitPrice = *req.LimitPrice
	}
	if req.StopPrice != nil {
		submitReq.HasStopPrice = true
		submitReq.StopPrice = *req.StopPrice
	}

	result := h.engine.Submit(submitReq)
	resp := OrderResponse{
		Accepted:     result.Accepted,
		RejectReason: result.RejectReason,
		Order:        toOrderView(result.Order),
		Trades:       toTradeViews(result.Trades),
	}
	if !result.Accepted {
		h.logger.Warn("order rejected", zap.String("symbol", req.Symbol), zap.String("reason", result.RejectReason))
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	if result.Err != nil {
		h.logger.Error("order accepted with cascade error", zap.String("symbol", req.Symbol), zap.Error(result.Err))
	}
	c.JSON(http.StatusCreated, resp)
}

// CancelOrder handles DELETE /v1/orders/{symbol}/{id}.
func (h *Handler) CancelOrder(c *gin.Context) {
	symbol := c.Param("symbol")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID", err)
		return
	}
	result := h.engine.Cancel(symbol, id)
	if result.Err != nil {
		status := http.StatusNotFound
		if errors.Is(result.Err, model.ErrUnknownSymbol) {
			status = http.StatusBadRequest
		}
		writeError(c, status, "cancel_failed", "order could not be cancelled", result.Err)
		return
	}
	c.JSON(http.StatusOK, CancelResponse{OK: result.OK, Order: toOrderView(result.Order)})
}

// GetDepth handles GET /v1/depth/{symbol}?levels=N.
func (h *Handler) GetDepth(c *gin.Context) {
	symbol := c.Param("symbol")
	n := 20
	if q := c.Query("levels"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			n = parsed
		}
	}
	depth, err := h.engine.GetDepth(symbol, n)
	if err != nil {
		writeError(c, http.StatusNotFound, "unknown_symbol", "symbol not configured", err)
		return
	}
	c.JSON(http.StatusOK, toDepthResponse(symbol, depth))
}

// GetBBO handles GET /v1/bbo/{symbol}.
func (h *Handler) GetBBO(c *gin.Context) {
	symbol := c.Param("symbol")
	bbo, err := h.engine.GetBBO(symbol)
	if err != nil {
		writeError(c, http.StatusNotFound, "unknown_symbol", "symbol not configured", err)
		return
	}
	c.JSON(http.StatusOK, toBBOResponse(bbo))
}

// GetRecentTrades handles GET /v1/trades/{symbol}?limit=N.
func (h *Handler) GetRecentTrades(c *gin.Context) {
	symbol := c.Param("symbol")
	n := 50
	if q := c.Query("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			n = parsed
		}
	}
	trades, err := h.engine.GetRecentTrades(symbol, n)
	if err != nil {
		writeError(c, http.StatusNotFound, "unknown_symbol", "symbol not configured", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "trades": toTradeViews(trades)})
}

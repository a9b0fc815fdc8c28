// Package transport is the HTTP/WebSocket adapter around the matching
// engine: request deserialization and schema validation, REST endpoints for
// order submission, cancellation, and book/trade reads, and a WebSocket
// stream relaying EventBus topics to subscribed clients.
package transport

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler wires the gin routes to an *engine.Engine.
type Handler struct {
	engine        *engine.Engine
	logger        *zap.Logger
	validate      *validator.Validate
	healthChecker func(context.Context) error
}

// NewHandler constructs a Handler and registers the trading_pair custom
// validation used by SubmitOrderRequest.Symbol.
func NewHandler(eng *engine.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	_ = v.RegisterValidation("trading_pair", validateTradingPair)
	v.RegisterCustomTypeFunc(decimalTypeFunc, decimal.Decimal{}, (*decimal.Decimal)(nil))
	return &Handler{engine: eng, logger: logger, validate: v}
}

func validateTradingPair(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.Contains(s, "/") && len(s) >= 3
}

// decimalTypeFunc lets the validator's numeric comparison tags (e.g. gt=0)
// operate on decimal.Decimal and *decimal.Decimal fields by exposing the
// underlying value as a float64.
func decimalTypeFunc(field reflect.Value) interface{} {
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := v.Float64()
		return f
	case *decimal.Decimal:
		if v == nil {
			return float64(0)
		}
		f, _ := v.Float64()
		return f
	}
	return nil
}

// SetHealthChecker wires an optional readiness probe (e.g. the Kafka
// publisher's connectivity check) into GET /healthz. Without one, healthz
// reports healthy as soon as the process is up.
func (h *Handler) SetHealthChecker(fn func(context.Context) error) {
	h.healthChecker = fn
}

// Healthz reports 200 once the process is up, and additionally 503 if a
// wired health checker reports a failure.
func (h *Handler) Healthz(c *gin.Context) {
	if h.healthChecker == nil {
		c.Status(http.StatusOK)
		return
	}
	if err := h.healthChecker(c.Request.Context()); err != nil {
		writeError(c, http.StatusServiceUnavailable, "not_ready", "a dependency is unreachable", err)
		return
	}
	c.Status(http.StatusOK)
}

// RegisterRoutes mounts every matching-engine endpoint under router.
func RegisterRoutes(router gin.IRouter, h *Handler) {
	v1 := router.Group("/v1")
	v1.POST("/orders", h.SubmitOrder)
	v1.POST("/stop-orders", h.SubmitOrder)
	v1.DELETE("/orders/:symbol/:id", h.CancelOrder)
	v1.GET("/depth/:symbol", h.GetDepth)
	v1.GET("/bbo/:symbol", h.GetBBO)
	v1.GET("/trades/:symbol", h.GetRecentTrades)
	v1.GET("/stream", h.Stream)
}

// NewRouter builds a ready-to-run gin engine with every route registered.
func NewRouter(eng *engine.Engine, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h := NewHandler(eng, logger)
	RegisterRoutes(r, h)
	r.GET("/healthz", h.Healthz)
	return r
}

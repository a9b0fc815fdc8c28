package engine

import (
	"fmt"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/shopspring/decimal"
)

func validKind(k model.Kind) bool {
	switch k {
	case model.KindMarket, model.KindLimit, model.KindIOC, model.KindFOK,
		model.KindStopMarket, model.KindStopLimit, model.KindTakeProfit:
		return true
	default:
		return false
	}
}

// validate checks req against the symbol's configuration, returning a
// human-readable reject reason (empty if valid). Validation never mutates
// engine state.
func validate(req SubmitRequest, cfg SymbolConfig, known bool) (reason string, err error) {
	if !known {
		return "unknown symbol", fmt.Errorf("%w: %s", model.ErrUnknownSymbol, req.Symbol)
	}
	if !validKind(req.Kind) {
		return "unknown kind", fmt.Errorf("%w: unknown kind %q", model.ErrInvalidRequest, req.Kind)
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return "quantity must be positive", fmt.Errorf("%w: non-positive quantity", model.ErrInvalidRequest)
	}
	if req.Kind.RequiresLimitPrice() && !req.HasLimitPrice {
		return "missing limit_price for kind", fmt.Errorf("%w: missing limit_price", model.ErrInvalidRequest)
	}
	if req.Kind.RequiresStopPrice() && !req.HasStopPrice {
		return "missing stop_price for kind", fmt.Errorf("%w: missing stop_price", model.ErrInvalidRequest)
	}
	if req.HasLimitPrice && !onTickGrid(req.LimitPrice, cfg.TickSize) {
		return "limit_price off tick grid", fmt.Errorf("%w: limit_price off tick grid", model.ErrInvalidRequest)
	}
	if req.HasStopPrice && !onTickGrid(req.StopPrice, cfg.TickSize) {
		return "stop_price off tick grid", fmt.Errorf("%w: stop_price off tick grid", model.ErrInvalidRequest)
	}
	return "", nil
}

func onTickGrid(price, tick decimal.Decimal) bool {
	if tick.IsZero() {
		return true
	}
	return price.Mod(tick).IsZero()
}

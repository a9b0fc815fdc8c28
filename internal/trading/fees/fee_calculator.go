// Package fees computes maker/taker fees atomically with a trade. The
// calculator is a pure function of (notional, liquidity role); it carries
// no state and never fails.
package fees

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMakerRate and DefaultTakerRate are applied to notional value
// (price * quantity) unless a symbol override is configured.
var (
	DefaultMakerRate = decimal.NewFromFloat(0.0001)
	DefaultTakerRate = decimal.NewFromFloat(0.0002)
)

// Rate is a per-symbol maker/taker override.
type Rate struct {
	MakerRate decimal.Decimal
	TakerRate decimal.Decimal
}

// Calculator computes fees for a trade, applying per-symbol overrides over
// the global default rates.
type Calculator struct {
	logger    *zap.Logger
	overrides map[string]Rate
}

// NewCalculator constructs a Calculator with no overrides configured.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		logger:    logger,
		overrides: make(map[string]Rate),
	}
}

// SetOverride configures maker/taker rates for a specific symbol, taking
// precedence over the global defaults for every subsequent Fees call on
// that symbol.
func (c *Calculator) SetOverride(symbol string, rate Rate) {
	c.overrides[symbol] = rate
}

func (c *Calculator) ratesFor(symbol string) (maker, taker decimal.Decimal) {
	if r, ok := c.overrides[symbol]; ok {
		return r.MakerRate, r.TakerRate
	}
	return DefaultMakerRate, DefaultTakerRate
}

// Fees returns (maker_fee, taker_fee) for a trade of quantity at price on
// symbol, computed against notional = price * quantity.
func (c *Calculator) Fees(symbol string, price, quantity decimal.Decimal) (makerFee, takerFee decimal.Decimal) {
	makerRate, takerRate := c.ratesFor(symbol)
	notional := price.Mul(quantity)
	return notional.Mul(makerRate), notional.Mul(takerRate)
}

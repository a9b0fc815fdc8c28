package engine

import (
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SymbolConfig carries the per-symbol tick grid and fee overrides that
// govern validation and matching for one symbol.
type SymbolConfig struct {
	Symbol      string
	TickSize    decimal.Decimal
	LotSize     decimal.Decimal
	MakerRate   decimal.Decimal
	TakerRate   decimal.Decimal
	HasFeeOverride bool
}

// SubmitRequest is the engine's narrow acceptance surface, already
// deserialized and type-checked by the transport layer.
type SubmitRequest struct {
	Symbol        string
	Side          model.Side
	Kind          model.Kind
	Quantity      decimal.Decimal
	LimitPrice    decimal.Decimal
	HasLimitPrice bool
	StopPrice     decimal.Decimal
	HasStopPrice  bool
}

// SubmitResult is returned by Submit for both matched and armed orders.
type SubmitResult struct {
	Accepted     bool
	Armed        bool
	Order        *model.Order
	Trades       []*model.Trade
	BookDeltas   []model.BookDelta
	RejectReason string
	Err          error
}

// CancelResult is returned by Cancel.
type CancelResult struct {
	OK    bool
	Order *model.Order
	Err   error
}

func newOrderID() uuid.UUID {
	return uuid.New()
}

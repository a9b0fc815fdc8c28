package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Kind enumerates the order-lifetime policies the engine understands.
type Kind string

const (
	KindMarket     Kind = "MARKET"
	KindLimit      Kind = "LIMIT"
	KindIOC        Kind = "IOC"
	KindFOK        Kind = "FOK"
	KindStopMarket Kind = "STOP_MARKET"
	KindStopLimit  Kind = "STOP_LIMIT"
	KindTakeProfit Kind = "TAKE_PROFIT"
)

// IsStop reports whether the kind is a conditional order armed by the
// stop monitor rather than matched immediately.
func (k Kind) IsStop() bool {
	return k == KindStopMarket || k == KindStopLimit || k == KindTakeProfit
}

// RequiresLimitPrice reports whether the kind carries a resting limit price.
func (k Kind) RequiresLimitPrice() bool {
	switch k {
	case KindLimit, KindIOC, KindFOK, KindStopLimit, KindTakeProfit:
		return true
	default:
		return false
	}
}

// RequiresStopPrice reports whether the kind carries a stop/trigger price.
func (k Kind) RequiresStopPrice() bool {
	return k.IsStop()
}

// ExecutionKind returns the Kind a triggered stop order is promoted to:
// STOP_MARKET becomes MARKET, STOP_LIMIT and TAKE_PROFIT become LIMIT.
func (k Kind) ExecutionKind() Kind {
	if k == KindStopMarket {
		return KindMarket
	}
	return KindLimit
}

// Status is the lifecycle state of an Order.
type Status string

const (
	StatusAccepted  Status = "ACCEPTED"
	StatusPartial   Status = "PARTIAL"
	StatusFilled    Status = "FILLED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
	StatusArmed     Status = "ARMED"
	StatusTriggered Status = "TRIGGERED"
)

// TriggerDirection is the direction of price movement that activates a stop.
type TriggerDirection string

const (
	TriggerAbove TriggerDirection = "ABOVE"
	TriggerBelow TriggerDirection = "BELOW"
)

// DeriveTriggerDirection computes the ABOVE/BELOW trigger direction for a
// conditional order from its side and kind. STOP_MARKET and STOP_LIMIT
// trigger on adverse price movement; TAKE_PROFIT triggers on favorable
// movement, which inverts the direction for the same side.
func DeriveTriggerDirection(side Side, kind Kind) TriggerDirection {
	isTakeProfit := kind == KindTakeProfit
	switch side {
	case SideBuy:
		if isTakeProfit {
			return TriggerBelow
		}
		return TriggerAbove
	default:
		if isTakeProfit {
			return TriggerAbove
		}
		return TriggerBelow
	}
}

// Order is a single order accepted by the engine, either resting in the
// book, armed in the stop monitor, or already disposed of.
type Order struct {
	OrderID           uuid.UUID
	Symbol            string
	Side              Side
	Kind              Kind
	LimitPrice        decimal.Decimal
	HasLimitPrice     bool
	StopPrice         decimal.Decimal
	HasStopPrice      bool
	QuantityOriginal  decimal.Decimal
	QuantityRemaining decimal.Decimal
	TimestampAccepted int64
	Status            Status
	TriggerDirection   TriggerDirection
	Triggered          bool
	OriginalKind       Kind // pre-trigger kind, preserved for cascade-overflow rollback
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Reduce deducts a filled quantity from the remaining quantity and updates
// status. Quantity never goes below zero.
func (o *Order) Reduce(qty decimal.Decimal) {
	o.QuantityRemaining = o.QuantityRemaining.Sub(qty)
	if o.QuantityRemaining.IsNegative() {
		o.QuantityRemaining = decimal.Zero
	}
	o.UpdatedAt = time.Now()
	switch {
	case o.QuantityRemaining.IsZero():
		o.Status = StatusFilled
	case o.QuantityRemaining.LessThan(o.QuantityOriginal):
		o.Status = StatusPartial
	}
}

// IsDone reports whether the order can no longer receive fills.
func (o *Order) IsDone() bool {
	return o.Status == StatusFilled || o.Status == StatusCancelled || o.Status == StatusRejected
}

// Clone returns a deep-enough copy for snapshot export, safe to mutate
// independently of the resting order.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

// Trade is an immutable record of one match between a maker and a taker.
type Trade struct {
	TradeID      int64
	Symbol       string
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	MakerOrderID uuid.UUID
	TakerOrderID uuid.UUID
	MakerSide    Side
	MakerFee     decimal.Decimal
	TakerFee     decimal.Decimal
	Timestamp    time.Time
}

// BookDelta reflects a change to the aggregate quantity resting at a price.
// NewAggregateQuantity == 0 means the level was removed.
type BookDelta struct {
	Symbol               string
	Side                 Side
	Price                decimal.Decimal
	NewAggregateQuantity decimal.Decimal
}

// DepthLevel is one (price, aggregate_quantity) row of a depth snapshot.
type DepthLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Depth is a two-sided snapshot of the top N levels of a book.
type Depth struct {
	Symbol string
	Bids   []DepthLevel
	Asks   []DepthLevel
}

// BBO is the best bid and offer for a symbol; either side may be absent.
type BBO struct {
	Symbol   string
	HasBid   bool
	BidPrice decimal.Decimal
	BidQty   decimal.Decimal
	HasAsk   bool
	AskPrice decimal.Decimal
	AskQty   decimal.Decimal
}

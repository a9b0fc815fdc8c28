package transport

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitOrderRequest is the JSON body for POST /v1/orders and
// POST /v1/stop-orders. LimitPrice and StopPrice are optional and their
// presence is tracked separately so "0" is never confused with "absent".
type SubmitOrderRequest struct {
	Symbol     string          `json:"symbol" binding:"required" validate:"required,trading_pair"`
	Side       string          `json:"side" binding:"required" validate:"oneof=BUY SELL"`
	Kind       string          `json:"kind" binding:"required" validate:"oneof=LIMIT MARKET IOC FOK STOP_MARKET STOP_LIMIT TAKE_PROFIT"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required" validate:"gt=0"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty" validate:"omitempty,gt=0"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty" validate:"omitempty,gt=0"`
}

// OrderResponse is the JSON shape returned for an accepted or rejected
// order, including any trades it generated immediately upon submission.
type OrderResponse struct {
	Accepted     bool            `json:"accepted"`
	RejectReason string          `json:"reject_reason,omitempty"`
	Order        *OrderView      `json:"order,omitempty"`
	Trades       []TradeView     `json:"trades,omitempty"`
}

// OrderView is the wire representation of model.Order.
type OrderView struct {
	OrderID    string          `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Quantity   decimal.Decimal `json:"quantity"`
	Remaining  decimal.Decimal `json:"remaining"`
	LimitPrice decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  decimal.Decimal `json:"stop_price,omitempty"`
}

// TradeView is the wire representation of model.Trade.
type TradeView struct {
	TradeID      int64           `json:"trade_id"`
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	MakerOrderID string          `json:"maker_order_id"`
	TakerOrderID string          `json:"taker_order_id"`
	MakerSide    string          `json:"maker_side"`
	MakerFee     decimal.Decimal `json:"maker_fee"`
	TakerFee     decimal.Decimal `json:"taker_fee"`
	Timestamp    time.Time       `json:"timestamp"`
}

// CancelResponse is the JSON body for DELETE /v1/orders/{symbol}/{id}.
type CancelResponse struct {
	OK    bool       `json:"ok"`
	Order *OrderView `json:"order,omitempty"`
}

// DepthResponse is the JSON body for GET /v1/depth/{symbol}.
type DepthResponse struct {
	Symbol string      `json:"symbol"`
	Bids   []LevelView `json:"bids"`
	Asks   []LevelView `json:"asks"`
}

// LevelView is one aggregated price level in a depth snapshot.
type LevelView struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BBOResponse is the JSON body for GET /v1/bbo/{symbol}.
type BBOResponse struct {
	Symbol   string          `json:"symbol"`
	HasBid   bool            `json:"has_bid"`
	BidPrice decimal.Decimal `json:"bid_price,omitempty"`
	BidQty   decimal.Decimal `json:"bid_qty,omitempty"`
	HasAsk   bool            `json:"has_ask"`
	AskPrice decimal.Decimal `json:"ask_price,omitempty"`
	AskQty   decimal.Decimal `json:"ask_qty,omitempty"`
}

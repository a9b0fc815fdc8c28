// Package orderbook implements the per-symbol, two-sided, price-time
// priority limit order book: FIFO queues at each price level and O(log P)
// best-price access via a B-tree keyed on price, where P is the number of
// distinct active price levels.
//
// An OrderBook has no internal locking. It is owned exclusively by a single
// symbol lane in the matching engine; callers must not share one instance
// across goroutines without serializing access themselves.
package orderbook

import (
	"container/list"
	"fmt"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
)

// priceScale is the number of decimal places used to key price levels as
// integer ticks, giving the B-tree a correctly ordered key type regardless
// of how a price happens to print as a string.
const priceScale = 8

func priceKey(price decimal.Decimal) int64 {
	return price.Shift(priceScale).Round(0).IntPart()
}

// PriceLevel is a FIFO queue of resting orders at one price, on one side.
type PriceLevel struct {
	Price decimal.Decimal
	Side  model.Side

	orders *list.List
	index  map[uuid.UUID]*list.Element
}

func newPriceLevel(price decimal.Decimal, side model.Side) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Side:   side,
		orders: list.New(),
		index:  make(map[uuid.UUID]*list.Element),
	}
}

// Append adds an order to the back of the FIFO queue.
func (lvl *PriceLevel) Append(order *model.Order) {
	el := lvl.orders.PushBack(order)
	lvl.index[order.OrderID] = el
}

// Front returns the oldest resting order, or nil if the level is empty.
func (lvl *PriceLevel) Front() *model.Order {
	if el := lvl.orders.Front(); el != nil {
		return el.Value.(*model.Order)
	}
	return nil
}

// Remove deletes an order from the level by id.
func (lvl *PriceLevel) Remove(orderID uuid.UUID) bool {
	el, ok := lvl.index[orderID]
	if !ok {
		return false
	}
	lvl.orders.Remove(el)
	delete(lvl.index, orderID)
	return true
}

// RemoveFront pops the oldest order once it is fully filled.
func (lvl *PriceLevel) RemoveFront() {
	el := lvl.orders.Front()
	if el == nil {
		return
	}
	order := el.Value.(*model.Order)
	lvl.orders.Remove(el)
	delete(lvl.index, order.OrderID)
}

// Empty reports whether the level has no resting orders left.
func (lvl *PriceLevel) Empty() bool {
	return lvl.orders.Len() == 0
}

// AggregateQuantity sums quantity_remaining across the level.
func (lvl *PriceLevel) AggregateQuantity() decimal.Decimal {
	total := decimal.Zero
	for el := lvl.orders.Front(); el != nil; el = el.Next() {
		total = total.Add(el.Value.(*model.Order).QuantityRemaining)
	}
	return total
}

// restingRef locates a resting order for O(1) cancel.
type restingRef struct {
	side  model.Side
	level *PriceLevel
}

// Fill is one match produced by Match, prior to fee computation and trade
// sequencing, which are the MatchingEngine's responsibility.
type Fill struct {
	Maker    *model.Order
	Taker    *model.Order
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderBook is the two-sided book for a single symbol.
type OrderBook struct {
	Symbol string

	bids *btree.Map[int64, *PriceLevel] // descending best-first
	asks *btree.Map[int64, *PriceLevel] // ascending best-first

	ordersByID map[uuid.UUID]*restingRef

	logger *zap.Logger
}

// New constructs an empty order book for symbol.
func New(symbol string, logger *zap.Logger) *OrderBook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderBook{
		Symbol:     symbol,
		bids:       btree.NewMap[int64, *PriceLevel](32),
		asks:       btree.NewMap[int64, *PriceLevel](32),
		ordersByID: make(map[uuid.UUID]*restingRef),
		logger:     logger,
	}
}

func (ob *OrderBook) bookFor(side model.Side) *btree.Map[int64, *PriceLevel] {
	if side == model.SideBuy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) oppositeBookFor(side model.Side) *btree.Map[int64, *PriceLevel] {
	if side == model.SideBuy {
		return ob.asks
	}
	return ob.bids
}

// BestBid returns the highest resting buy price and its level, if any.
func (ob *OrderBook) BestBid() (*PriceLevel, bool) {
	_, lvl, ok := ob.bids.Max()
	return lvl, ok
}

// BestAsk returns the lowest resting sell price and its level, if any.
func (ob *OrderBook) BestAsk() (*PriceLevel, bool) {
	_, lvl, ok := ob.asks.Min()
	return lvl, ok
}

// marketable reports whether the opposite level's price satisfies the
// taker's limit: ask <= taker_limit for a BUY, bid >= taker_limit for a
// SELL. MARKET orders have no bound and are always marketable.
func marketable(takerSide model.Side, takerHasLimit bool, takerLimit, levelPrice decimal.Decimal) bool {
	if !takerHasLimit {
		return true
	}
	if takerSide == model.SideBuy {
		return levelPrice.LessThanOrEqual(takerLimit)
	}
	return levelPrice.GreaterThanOrEqual(takerLimit)
}

// Match sweeps the opposite side of the book best-first, filling the taker
// against resting makers in strict FIFO order within each level, until the
// taker is exhausted or no further level is marketable. It mutates both
// sides' quantities and removes exhausted makers and emptied levels as it
// goes; a Trade is implied by each returned Fill only once both legs have
// been decremented, so callers never observe a partially-applied fill.
func (ob *OrderBook) Match(taker *model.Order) []Fill {
	var fills []Fill
	oppBook := ob.oppositeBookFor(taker.Side)

	for taker.QuantityRemaining.IsPositive() {
		_, lvl, ok := firstLevel(oppBook, taker.Side)
		if !ok {
			break
		}
		if !marketable(taker.Side, taker.HasLimitPrice, taker.LimitPrice, lvl.Price) {
			break
		}

		for taker.QuantityRemaining.IsPositive() {
			maker := lvl.Front()
			if maker == nil {
				break
			}
			qty := decimal.Min(taker.QuantityRemaining, maker.QuantityRemaining)

			taker.Reduce(qty)
			maker.Reduce(qty)

			fills = append(fills, Fill{
				Maker:    maker,
				Taker:    taker,
				Price:    lvl.Price,
				Quantity: qty,
			})

			if maker.QuantityRemaining.IsZero() {
				lvl.RemoveFront()
				delete(ob.ordersByID, maker.OrderID)
			}
		}

		if lvl.Empty() {
			oppBook.Delete(priceKey(lvl.Price))
		}
	}

	return fills
}

func firstLevel(book *btree.Map[int64, *PriceLevel], takerSide model.Side) (int64, *PriceLevel, bool) {
	if takerSide == model.SideBuy {
		// taker buys against asks, best is lowest price
		k, lvl, ok := book.Min()
		return k, lvl, ok
	}
	k, lvl, ok := book.Max()
	return k, lvl, ok
}

// CanFullyFill simulates Match without mutating any state, reporting
// whether the opposite side currently holds enough marketable quantity to
// fill order.QuantityRemaining in full. Used for the FOK pre-check.
func (ob *OrderBook) CanFullyFill(order *model.Order) bool {
	remaining := order.QuantityRemaining
	oppBook := ob.oppositeBookFor(order.Side)

	visit := func(_ int64, lvl *PriceLevel) bool {
		if !marketable(order.Side, order.HasLimitPrice, order.LimitPrice, lvl.Price) {
			return false
		}
		remaining = remaining.Sub(lvl.AggregateQuantity())
		return remaining.IsPositive()
	}

	if order.Side == model.SideBuy {
		oppBook.Scan(visit)
	} else {
		oppBook.Reverse(visit)
	}
	return !remaining.IsPositive()
}

// AddResting places a LIMIT order on the book at its limit price. The
// caller (MatchingEngine) must have already run Match so the order no
// longer crosses the opposite best; AddResting rejects a crossed order as
// a caller bug rather than silently fixing it up.
func (ob *OrderBook) AddResting(order *model.Order) error {
	if best, ok := ob.oppositeBest(order.Side); ok {
		if crosses(order.Side, order.LimitPrice, best) {
			return fmt.Errorf("%w: %s %s crosses opposite best %s", model.ErrCrossedOrder, order.Side, order.LimitPrice, best)
		}
	}

	book := ob.bookFor(order.Side)
	key := priceKey(order.LimitPrice)
	lvl, ok := book.Get(key)
	if !ok {
		lvl = newPriceLevel(order.LimitPrice, order.Side)
		book.Set(key, lvl)
	}
	lvl.Append(order)
	ob.ordersByID[order.OrderID] = &restingRef{side: order.Side, level: lvl}
	return nil
}

// RestoreResting re-inserts a previously-resting order during snapshot
// import, preserving its timestamp_accepted and FIFO position. Unlike
// AddResting it does not guard against crossing, since a snapshot taken at
// shutdown is assumed consistent.
func (ob *OrderBook) RestoreResting(order *model.Order) {
	book := ob.bookFor(order.Side)
	key := priceKey(order.LimitPrice)
	lvl, ok := book.Get(key)
	if !ok {
		lvl = newPriceLevel(order.LimitPrice, order.Side)
		book.Set(key, lvl)
	}
	lvl.Append(order)
	ob.ordersByID[order.OrderID] = &restingRef{side: order.Side, level: lvl}
}

func (ob *OrderBook) oppositeBest(side model.Side) (decimal.Decimal, bool) {
	if side == model.SideBuy {
		if lvl, ok := ob.BestAsk(); ok {
			return lvl.Price, true
		}
		return decimal.Zero, false
	}
	if lvl, ok := ob.BestBid(); ok {
		return lvl.Price, true
	}
	return decimal.Zero, false
}

func crosses(side model.Side, price, oppositeBest decimal.Decimal) bool {
	if side == model.SideBuy {
		return price.GreaterThanOrEqual(oppositeBest)
	}
	return price.LessThanOrEqual(oppositeBest)
}

// Cancel removes a resting order by id.
func (ob *OrderBook) Cancel(orderID uuid.UUID) (*model.Order, error) {
	ref, ok := ob.ordersByID[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", model.ErrNotFound, orderID)
	}

	order := ref.level.index[orderID].Value.(*model.Order)

	ref.level.Remove(orderID)
	delete(ob.ordersByID, orderID)
	if ref.level.Empty() {
		ob.bookFor(ref.side).Delete(priceKey(ref.level.Price))
	}
	order.Status = model.StatusCancelled
	return order, nil
}

// SnapshotDepth returns the top n (price, aggregate_quantity) levels for
// both sides, best-first.
func (ob *OrderBook) SnapshotDepth(n int) model.Depth {
	depth := model.Depth{Symbol: ob.Symbol}
	ob.bids.Reverse(func(_ int64, lvl *PriceLevel) bool {
		if len(depth.Bids) >= n {
			return false
		}
		depth.Bids = append(depth.Bids, model.DepthLevel{Price: lvl.Price, Quantity: lvl.AggregateQuantity()})
		return true
	})
	ob.asks.Scan(func(_ int64, lvl *PriceLevel) bool {
		if len(depth.Asks) >= n {
			return false
		}
		depth.Asks = append(depth.Asks, model.DepthLevel{Price: lvl.Price, Quantity: lvl.AggregateQuantity()})
		return true
	})
	return depth
}

// BBO returns the best bid and offer; either side may be absent.
func (ob *OrderBook) BBO() model.BBO {
	bbo := model.BBO{Symbol: ob.Symbol}
	if lvl, ok := ob.BestBid(); ok {
		bbo.HasBid = true
		bbo.BidPrice = lvl.Price
		bbo.BidQty = lvl.AggregateQuantity()
	}
	if lvl, ok := ob.BestAsk(); ok {
		bbo.HasAsk = true
		bbo.AskPrice = lvl.Price
		bbo.AskQty = lvl.AggregateQuantity()
	}
	return bbo
}

// LevelQuantity returns the current aggregate quantity resting at price on
// side, or zero if the level no longer exists (e.g. it was just consumed).
func (ob *OrderBook) LevelQuantity(side model.Side, price decimal.Decimal) decimal.Decimal {
	lvl, ok := ob.bookFor(side).Get(priceKey(price))
	if !ok {
		return decimal.Zero
	}
	return lvl.AggregateQuantity()
}

// IsCrossed reports whether best_bid >= best_ask, which must never happen
// after any operation completes.
func (ob *OrderBook) IsCrossed() bool {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return false
	}
	return bid.Price.GreaterThanOrEqual(ask.Price)
}

// RestingOrders returns every order still resting on the book, ordered
// side-then-price-then-FIFO, for snapshot export.
func (ob *OrderBook) RestingOrders() []*model.Order {
	var out []*model.Order
	ob.bids.Reverse(func(_ int64, lvl *PriceLevel) bool {
		for el := lvl.orders.Front(); el != nil; el = el.Next() {
			out = append(out, el.Value.(*model.Order))
		}
		return true
	})
	ob.asks.Scan(func(_ int64, lvl *PriceLevel) bool {
		for el := lvl.orders.Front(); el != nil; el = el.Next() {
			out = append(out, el.Value.(*model.Order))
		}
		return true
	})
	return out
}

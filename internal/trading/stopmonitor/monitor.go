// Package stopmonitor maintains conditional (stop) orders pending
// activation and promotes them into the matching engine once the market
// trades through their trigger price.
//
// The monitor is invoked synchronously from the owning symbol's lane, as an
// in-lane hook called after any trade that changes last_price, rather than
// from a background polling loop. That eliminates the race a separate
// scheduler would otherwise create against the lane's own state.
package stopmonitor

import (
	"fmt"
	"sort"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMaxCascadeDepth bounds how many times on_price may re-trigger
// itself within a single price update before surfacing CascadeOverflow.
const DefaultMaxCascadeDepth = 64

// symbolBook holds ARMED stops for one symbol, split by trigger direction
// and kept sorted by stop price so activation can scan from the boundary
// closest to the pre-trigger last price.
type symbolBook struct {
	// above is sorted ascending: triggers when last_price >= stop_price,
	// so the smallest stop price is the first to trigger on an upward move.
	above []*model.Order
	// below is sorted descending: triggers when last_price <= stop_price,
	// so the largest stop price is the first to trigger on a downward move.
	below []*model.Order
}

// Monitor owns every ARMED stop order across all symbols.
type Monitor struct {
	logger         *zap.Logger
	maxCascadeDepth int

	books     map[string]*symbolBook
	byID      map[uuid.UUID]*model.Order
	lastPrice map[string]decimal.Decimal
}

// New constructs an empty Monitor. maxCascadeDepth <= 0 uses
// DefaultMaxCascadeDepth.
func New(logger *zap.Logger, maxCascadeDepth int) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxCascadeDepth <= 0 {
		maxCascadeDepth = DefaultMaxCascadeDepth
	}
	return &Monitor{
		logger:          logger,
		maxCascadeDepth: maxCascadeDepth,
		books:           make(map[string]*symbolBook),
		byID:            make(map[uuid.UUID]*model.Order),
		lastPrice:       make(map[string]decimal.Decimal),
	}
}

func (m *Monitor) bookFor(symbol string) *symbolBook {
	b, ok := m.books[symbol]
	if !ok {
		b = &symbolBook{}
		m.books[symbol] = b
	}
	return b
}

// Arm inserts order into the appropriate structure; the order becomes
// ARMED. order.TriggerDirection must already be set.
func (m *Monitor) Arm(order *model.Order) {
	if order.OriginalKind == "" {
		order.OriginalKind = order.Kind
	}
	order.Status = model.StatusArmed
	b := m.bookFor(order.Symbol)
	m.byID[order.OrderID] = order

	if order.TriggerDirection == model.TriggerAbove {
		b.above = insertSorted(b.above, order, func(a, c decimal.Decimal) bool { return a.LessThan(c) })
	} else {
		b.below = insertSorted(b.below, order, func(a, c decimal.Decimal) bool { return a.GreaterThan(c) })
	}
}

// insertSorted inserts order into a slice kept sorted by stop price
// according to less, preserving FIFO order (stable, insertion order) among
// equal stop prices.
func insertSorted(list []*model.Order, order *model.Order, less func(a, b decimal.Decimal) bool) []*model.Order {
	idx := sort.Search(len(list), func(i int) bool {
		return !less(list[i].StopPrice, order.StopPrice) && !list[i].StopPrice.Equal(order.StopPrice)
	})
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = order
	return list
}

// Cancel removes an ARMED stop by id.
func (m *Monitor) Cancel(orderID uuid.UUID) (*model.Order, error) {
	order, ok := m.byID[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: stop order %s", model.ErrNotFound, orderID)
	}
	b := m.bookFor(order.Symbol)
	if order.TriggerDirection == model.TriggerAbove {
		b.above = removeByID(b.above, orderID)
	} else {
		b.below = removeByID(b.below, orderID)
	}
	delete(m.byID, orderID)
	order.Status = model.StatusCancelled
	return order, nil
}

func removeByID(list []*model.Order, id uuid.UUID) []*model.Order {
	for i, o := range list {
		if o.OrderID == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// OnPrice pops every ARMED stop for symbol whose trigger condition is
// satisfied at price, marks each TRIGGERED, and transforms it into its
// execution form (STOP_MARKET -> MARKET; STOP_LIMIT/TAKE_PROFIT -> LIMIT,
// keeping the original limit_price). Activation order is by stop price in
// the direction of the move away from the prior last_price, FIFO within an
// equal stop price. It does not itself re-invoke matching; the caller
// (MatchingEngine) feeds the returned orders back through submission and
// is responsible for calling OnPrice again if those fills move last_price
// further; the engine lane's cascade loop does this, bounded by
// MaxCascadeDepth.
func (m *Monitor) OnPrice(symbol string, price decimal.Decimal) []*model.Order {
	prior, hadPrior := m.lastPrice[symbol]
	m.lastPrice[symbol] = price

	movedUp := !hadPrior || price.GreaterThan(prior)
	movedDown := !hadPrior || price.LessThan(prior)

	b := m.bookFor(symbol)
	var triggered []*model.Order

	if movedUp {
		var remain []*model.Order
		for _, o := range b.above {
			if price.GreaterThanOrEqual(o.StopPrice) {
				triggered = append(triggered, o)
			} else {
				remain = append(remain, o)
			}
		}
		b.above = remain
	}
	if movedDown {
		var remain []*model.Order
		for _, o := range b.below {
			if price.LessThanOrEqual(o.StopPrice) {
				triggered = append(triggered, o)
			} else {
				remain = append(remain, o)
			}
		}
		b.below = remain
	}

	for _, o := range triggered {
		delete(m.byID, o.OrderID)
		o.Triggered = true
		o.Status = model.StatusTriggered
		o.Kind = o.Kind.ExecutionKind()
	}
	return triggered
}

// CascadeOverflowError reports that a triggering wave exceeded the
// configured cascade depth ceiling. Any stops still ARMED at that point are
// left ARMED rather than force-triggered.
type CascadeOverflowError struct {
	Symbol string
	Depth  int
}

func (e *CascadeOverflowError) Error() string {
	return fmt.Sprintf("%s: cascade depth %d exceeded for symbol %s", model.ErrCascadeOverflow, e.Depth, e.Symbol)
}

func (e *CascadeOverflowError) Unwrap() error { return model.ErrCascadeOverflow }

// MaxCascadeDepth returns the configured cascade depth ceiling.
func (m *Monitor) MaxCascadeDepth() int {
	return m.maxCascadeDepth
}

// ArmedOrders returns every currently ARMED stop, for snapshot export.
func (m *Monitor) ArmedOrders() []*model.Order {
	out := make([]*model.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out
}

// Revert undoes a triggering produced by OnPrice, restoring order to ARMED
// with its pre-trigger kind and re-inserting it. Used when a cascade wave
// is abandoned because it would exceed MaxCascadeDepth.
func (m *Monitor) Revert(order *model.Order) {
	order.Kind = order.OriginalKind
	order.Triggered = false
	m.Arm(order)
}

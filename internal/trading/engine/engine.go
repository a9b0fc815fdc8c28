// Package engine implements the MatchingEngine: it accepts orders,
// dispatches them to the OrderBook according to their kind, computes fees,
// emits trade and book-delta events, and drives the StopMonitor's cascade
// of triggered conditional orders.
//
// Every symbol owns a single lane (one goroutine, one job queue); engine
// methods enqueue a closure onto the target lane and block on a response
// channel, so all mutating operations on one symbol are totally ordered
// while different symbols proceed fully in parallel.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/fees"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/observability"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/pricecache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the explicit handle for the matching core; nothing here is
// process-wide global state.
type Engine struct {
	logger          *zap.Logger
	bus             *eventbus.Bus
	fees            *fees.Calculator
	maxCascadeDepth int

	mu         sync.Mutex
	lanes      map[string]*lane
	cfg        map[string]SymbolConfig
	tradeSeq   int64
	priceCache *pricecache.Cache
}

// SetPriceCache wires a Redis last-price cache into every lane created from
// this point on. It must be called before the first Submit for a symbol —
// lanes are created lazily on first use and capture the cache at that time.
func (e *Engine) SetPriceCache(c *pricecache.Cache) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.priceCache = c
}

// New constructs an Engine over the given symbol configs. bus and calc may
// be shared with other collaborators (transport, journal, metrics).
func New(logger *zap.Logger, bus *eventbus.Bus, calc *fees.Calculator, symbols []SymbolConfig, maxCascadeDepth int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.New(logger)
	}
	if calc == nil {
		calc = fees.NewCalculator(logger)
	}
	cfg := make(map[string]SymbolConfig, len(symbols))
	for _, s := range symbols {
		cfg[s.Symbol] = s
	}
	return &Engine{
		logger:          logger,
		bus:             bus,
		fees:            calc,
		maxCascadeDepth: maxCascadeDepth,
		lanes:           make(map[string]*lane),
		cfg:             cfg,
	}
}

// EventBus exposes the engine's event fabric for subscribers.
func (e *Engine) EventBus() *eventbus.Bus {
	return e.bus
}

func (e *Engine) laneFor(symbol string) (*lane, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, known := e.cfg[symbol]
	if !known {
		return nil, false
	}
	l, ok := e.lanes[symbol]
	if !ok {
		l = newLane(cfg, e.bus, e.fees, e.logger, e.maxCascadeDepth)
		l.priceCache = e.priceCache
		e.lanes[symbol] = l
	}
	return l, true
}

// run dispatches fn onto symbol's lane and blocks for its result.
func run[T any](e *Engine, symbol string, fn func(l *lane) T) (T, bool) {
	l, known := e.laneFor(symbol)
	if !known {
		var zero T
		return zero, false
	}
	resCh := make(chan T, 1)
	l.jobs <- func() { resCh <- fn(l) }
	return <-resCh, true
}

// Submit accepts or rejects req. On accept it performs matching (or
// arming, for stop kinds) and returns fills, book deltas, and — for stop
// kinds — an ARMED order with no trades.
func (e *Engine) Submit(req SubmitRequest) SubmitResult {
	start := time.Now()
	e.mu.Lock()
	cfg, known := e.cfg[req.Symbol]
	e.mu.Unlock()

	if reason, err := validate(req, cfg, known); err != nil {
		observability.ObserveSubmit(req.Symbol, "rejected", time.Since(start))
		return SubmitResult{Accepted: false, RejectReason: reason, Err: err}
	}

	result, _ := run(e, req.Symbol, func(l *lane) SubmitResult {
		return l.submit(req, &e.tradeSeq)
	})

	outcome := "accepted"
	if !result.Accepted {
		outcome = "rejected"
	}
	observability.ObserveSubmit(req.Symbol, outcome, time.Since(start))
	observability.ObserveTrades(req.Symbol, len(result.Trades))
	return result
}

// Cancel removes a resting order or an ARMED stop for symbol.
func (e *Engine) Cancel(symbol string, orderID uuid.UUID) CancelResult {
	result, known := run(e, symbol, func(l *lane) CancelResult {
		if order, err := l.book.Cancel(orderID); err == nil {
			l.bus.Publish(symbol, eventbus.TopicDepth, model.BookDelta{
				Symbol:               symbol,
				Side:                 order.Side,
				Price:                order.LimitPrice,
				NewAggregateQuantity: l.book.LevelQuantity(order.Side, order.LimitPrice),
			})
			return CancelResult{OK: true, Order: order}
		}
		if order, err := l.monitor.Cancel(orderID); err == nil {
			return CancelResult{OK: true, Order: order}
		}
		return CancelResult{OK: false, Err: fmt.Errorf("%w: order %s", model.ErrNotFound, orderID)}
	})
	if !known {
		return CancelResult{OK: false, Err: fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)}
	}
	return result
}

// GetDepth returns the top n levels per side for symbol, read inside the
// owning lane so it reflects a consistent point in the mutation sequence.
func (e *Engine) GetDepth(symbol string, n int) (model.Depth, error) {
	depth, known := run(e, symbol, func(l *lane) model.Depth {
		return l.book.SnapshotDepth(n)
	})
	if !known {
		return model.Depth{}, fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}
	return depth, nil
}

// GetBBO returns the current best bid/offer for symbol.
func (e *Engine) GetBBO(symbol string) (model.BBO, error) {
	bbo, known := run(e, symbol, func(l *lane) model.BBO {
		return l.book.BBO()
	})
	if !known {
		return model.BBO{}, fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}
	return bbo, nil
}

// GetRecentTrades returns up to n of the most recent trades for symbol,
// newest last.
func (e *Engine) GetRecentTrades(symbol string, n int) ([]*model.Trade, error) {
	trades, known := run(e, symbol, func(l *lane) []*model.Trade {
		if n <= 0 || n >= len(l.recent) {
			out := make([]*model.Trade, len(l.recent))
			copy(out, l.recent)
			return out
		}
		out := make([]*model.Trade, n)
		copy(out, l.recent[len(l.recent)-n:])
		return out
	})
	if !known {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}
	return trades, nil
}

// Symbols returns every configured symbol, whether or not its lane has
// been created yet.
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.cfg))
	for s := range e.cfg {
		out = append(out, s)
	}
	return out
}

// SnapshotSymbol returns every resting order and ARMED stop for symbol, for
// export by the persistence adapter.
func (e *Engine) SnapshotSymbol(symbol string) (resting, armed []*model.Order, err error) {
	type pair struct {
		resting, armed []*model.Order
	}
	p, known := run(e, symbol, func(l *lane) pair {
		r, a := l.snapshot()
		return pair{resting: r, armed: a}
	})
	if !known {
		return nil, nil, fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}
	return p.resting, p.armed, nil
}

// RestoreSymbol re-inserts a prior snapshot for symbol. It must be called
// before the engine accepts any live traffic for that symbol, since it
// does not re-validate the tick grid or re-run matching.
func (e *Engine) RestoreSymbol(symbol string, resting, armed []*model.Order) error {
	_, known := run(e, symbol, func(l *lane) struct{} {
		l.restore(resting, armed)
		return struct{}{}
	})
	if !known {
		return fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}
	return nil
}

// Close stops every running lane. Submit is documented as non-cancellable
// once it enters a lane, so Close should only be called once no further
// submissions will arrive.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.lanes {
		l.close()
	}
}

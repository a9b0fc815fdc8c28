package engine

import (
	"context"
	"time"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/fees"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/observability"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/orderbook"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/pricecache"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/stopmonitor"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentTradesCap = 1000

// lane is the single serialized mutation domain for one symbol: every
// submit, cancel, and stop activation for this symbol runs one job at a
// time on jobs, so the book and monitor it owns need no internal locking.
type lane struct {
	symbol  string
	cfg     SymbolConfig
	book    *orderbook.OrderBook
	monitor *stopmonitor.Monitor
	bus     *eventbus.Bus
	fees    *fees.Calculator
	logger  *zap.Logger

	seq        int64
	hasLast    bool
	lastPrice  decimal.Decimal
	priceCache *pricecache.Cache

	recent []*model.Trade

	jobs chan func()
	quit chan struct{}
}

func newLane(cfg SymbolConfig, bus *eventbus.Bus, calc *fees.Calculator, logger *zap.Logger, maxCascadeDepth int) *lane {
	l := &lane{
		symbol:  cfg.Symbol,
		cfg:     cfg,
		book:    orderbook.New(cfg.Symbol, logger),
		monitor: stopmonitor.New(logger, maxCascadeDepth),
		bus:     bus,
		fees:    calc,
		logger:  logger,
		jobs:    make(chan func(), 256),
		quit:    make(chan struct{}),
	}
	if calc != nil && cfg.HasFeeOverride {
		calc.SetOverride(cfg.Symbol, fees.Rate{MakerRate: cfg.MakerRate, TakerRate: cfg.TakerRate})
	}
	go l.run()
	return l
}

func (l *lane) run() {
	for {
		select {
		case job := <-l.jobs:
			job()
		case <-l.quit:
			return
		}
	}
}

func (l *lane) close() {
	close(l.quit)
}

// snapshot returns every resting order and ARMED stop for export.
func (l *lane) snapshot() ([]*model.Order, []*model.Order) {
	return l.book.RestingOrders(), l.monitor.ArmedOrders()
}

// restore re-inserts orders from a prior snapshot, preserving
// timestamp_accepted and FIFO order, and advances the lane's sequence
// counter past the highest restored value so newly accepted orders never
// collide with restored ones.
func (l *lane) restore(resting, armed []*model.Order) {
	for _, o := range resting {
		l.book.RestoreResting(o)
		if o.TimestampAccepted > l.seq {
			l.seq = o.TimestampAccepted
		}
	}
	for _, o := range armed {
		l.monitor.Arm(o)
		if o.TimestampAccepted > l.seq {
			l.seq = o.TimestampAccepted
		}
	}
}

func (l *lane) nextSeq() int64 {
	l.seq++
	return l.seq
}

// submit runs the full accept/match/rest/cascade pipeline for req inside
// the lane and returns the outcome.
func (l *lane) submit(req SubmitRequest, tradeSeq *int64) SubmitResult {
	order := &model.Order{
		OrderID:           newOrderID(),
		Symbol:            req.Symbol,
		Side:              req.Side,
		Kind:              req.Kind,
		LimitPrice:        req.LimitPrice,
		HasLimitPrice:     req.HasLimitPrice,
		StopPrice:         req.StopPrice,
		HasStopPrice:      req.HasStopPrice,
		QuantityOriginal:  req.Quantity,
		QuantityRemaining: req.Quantity,
		TimestampAccepted: l.nextSeq(),
		Status:            model.StatusAccepted,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	if order.Kind.IsStop() {
		order.TriggerDirection = model.DeriveTriggerDirection(order.Side, order.Kind)
		l.monitor.Arm(order)
		return SubmitResult{Accepted: true, Armed: true, Order: order}
	}

	if order.Kind == model.KindFOK && !l.book.CanFullyFill(order) {
		order.Status = model.StatusRejected
		return SubmitResult{Accepted: false, Order: nil, RejectReason: "fill-or-kill cannot be fully filled", Err: model.ErrInsufficientLiquidity}
	}
	if order.Kind == model.KindMarket {
		if _, ok := l.oppositeBest(order.Side); !ok {
			order.Status = model.StatusRejected
			return SubmitResult{Accepted: false, Order: nil, RejectReason: "no opposite liquidity for market order", Err: model.ErrInsufficientLiquidity}
		}
	}

	trades, deltas := l.execute(order, tradeSeq)

	switch order.Kind {
	case model.KindLimit:
		if order.QuantityRemaining.IsPositive() {
			_ = l.book.AddResting(order)
			deltas = append(deltas, model.BookDelta{
				Symbol:               l.symbol,
				Side:                 order.Side,
				Price:                order.LimitPrice,
				NewAggregateQuantity: l.book.LevelQuantity(order.Side, order.LimitPrice),
			})
		}
	default: // MARKET, IOC, FOK: residual is cancelled, never rested
		if order.QuantityRemaining.IsPositive() {
			order.Status = model.StatusCancelled
		}
	}

	if len(trades) > 0 {
		l.publishDepthAndBBO(deltas)
		cascadeTrades, cascadeDeltas, cascadeErr := l.cascade(l.lastPrice, tradeSeq)
		trades = append(trades, cascadeTrades...)
		deltas = append(deltas, cascadeDeltas...)
		if cascadeErr != nil {
			return SubmitResult{Accepted: true, Order: order, Trades: trades, BookDeltas: deltas, Err: cascadeErr}
		}
	}

	return SubmitResult{Accepted: true, Order: order, Trades: trades, BookDeltas: deltas}
}

// execute runs OrderBook.Match for order, turning each Fill into a priced
// Trade and collecting book deltas for every price level it touched.
func (l *lane) execute(order *model.Order, tradeSeq *int64) ([]*model.Trade, []model.BookDelta) {
	fills := l.book.Match(order)
	if len(fills) == 0 {
		return nil, nil
	}

	touched := make(map[string]decimal.Decimal)
	var trades []*model.Trade
	for _, f := range fills {
		*tradeSeq++
		makerFee, takerFee := l.fees.Fees(l.symbol, f.Price, f.Quantity)
		trade := &model.Trade{
			TradeID:      *tradeSeq,
			Symbol:       l.symbol,
			Price:        f.Price,
			Quantity:     f.Quantity,
			MakerOrderID: f.Maker.OrderID,
			TakerOrderID: f.Taker.OrderID,
			MakerSide:    f.Maker.Side,
			MakerFee:     makerFee,
			TakerFee:     takerFee,
			Timestamp:    time.Now(),
		}
		trades = append(trades, trade)
		l.recordRecent(trade)
		l.bus.Publish(l.symbol, eventbus.TopicTrades, trade)
		touched[f.Price.String()] = f.Price
	}

	l.hasLast = true
	l.lastPrice = fills[len(fills)-1].Price
	l.priceCache.SetLastPrice(context.Background(), l.symbol, l.lastPrice)

	deltas := make([]model.BookDelta, 0, len(touched))
	for _, price := range touched {
		deltas = append(deltas, model.BookDelta{
			Symbol:               l.symbol,
			Side:                 oppositeSide(order.Side),
			Price:                price,
			NewAggregateQuantity: l.book.LevelQuantity(oppositeSide(order.Side), price),
		})
	}
	return trades, deltas
}

func oppositeSide(s model.Side) model.Side {
	if s == model.SideBuy {
		return model.SideSell
	}
	return model.SideBuy
}

func (l *lane) oppositeBest(side model.Side) (decimal.Decimal, bool) {
	if side == model.SideBuy {
		if lvl, ok := l.book.BestAsk(); ok {
			return lvl.Price, true
		}
		return decimal.Zero, false
	}
	if lvl, ok := l.book.BestBid(); ok {
		return lvl.Price, true
	}
	return decimal.Zero, false
}

func (l *lane) recordRecent(t *model.Trade) {
	l.recent = append(l.recent, t)
	if len(l.recent) > recentTradesCap {
		l.recent = l.recent[len(l.recent)-recentTradesCap:]
	}
}

func (l *lane) publishDepthAndBBO(deltas []model.BookDelta) {
	for _, d := range deltas {
		l.bus.Publish(l.symbol, eventbus.TopicDepth, d)
	}
	bbo := l.book.BBO()
	l.bus.Publish(l.symbol, eventbus.TopicBBO, bbo)
	if bbo.HasBid {
		observability.ObserveBestQuantity(l.symbol, string(model.SideBuy), bbo.BidQty.InexactFloat64())
	}
	if bbo.HasAsk {
		observability.ObserveBestQuantity(l.symbol, string(model.SideSell), bbo.AskQty.InexactFloat64())
	}
}

// cascade re-invokes the stop monitor after a trade, feeding triggered
// stops back through execute, until a fixed point or the configured
// cascade depth is exceeded.
func (l *lane) cascade(lastPrice decimal.Decimal, tradeSeq *int64) ([]*model.Trade, []model.BookDelta, error) {
	var allTrades []*model.Trade
	var allDeltas []model.BookDelta
	depth := 0

	for {
		triggered := l.monitor.OnPrice(l.symbol, lastPrice)
		if len(triggered) == 0 {
			observability.ObserveCascade(l.symbol, depth, false)
			return allTrades, allDeltas, nil
		}
		depth++
		if depth > l.monitor.MaxCascadeDepth() {
			for _, o := range triggered {
				l.monitor.Revert(o)
			}
			observability.ObserveCascade(l.symbol, depth, true)
			return allTrades, allDeltas, &stopmonitor.CascadeOverflowError{Symbol: l.symbol, Depth: depth}
		}

		for _, o := range triggered {
			trades, deltas := l.execute(o, tradeSeq)
			switch o.Kind {
			case model.KindLimit:
				if o.QuantityRemaining.IsPositive() {
					_ = l.book.AddResting(o)
					deltas = append(deltas, model.BookDelta{
						Symbol:               l.symbol,
						Side:                 o.Side,
						Price:                o.LimitPrice,
						NewAggregateQuantity: l.book.LevelQuantity(o.Side, o.LimitPrice),
					})
				}
			default:
				if o.QuantityRemaining.IsPositive() {
					o.Status = model.StatusCancelled
				}
			}
			allTrades = append(allTrades, trades...)
			allDeltas = append(allDeltas, deltas...)
			if len(trades) > 0 {
				l.publishDepthAndBBO(deltas)
				lastPrice = l.lastPrice
			}
		}
	}
}

package orderbook_test

import (
	"testing"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/orderbook"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func restingOrder(side model.Side, price, qty string, seq int64) *model.Order {
	return &model.Order{
		OrderID:           uuid.New(),
		Side:              side,
		Kind:              model.KindLimit,
		LimitPrice:        dec(price),
		HasLimitPrice:     true,
		QuantityOriginal:  dec(qty),
		QuantityRemaining: dec(qty),
		TimestampAccepted: seq,
		Status:            model.StatusAccepted,
	}
}

func TestAddRestingAndBBO(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	require.NoError(t, ob.AddResting(restingOrder(model.SideBuy, "100.00", "1", 1)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideBuy, "101.00", "1", 2)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "102.00", "1", 3)))

	bbo := ob.BBO()
	assert.True(t, bbo.HasBid)
	assert.True(t, bbo.BidPrice.Equal(dec("101.00")))
	assert.True(t, bbo.HasAsk)
	assert.True(t, bbo.AskPrice.Equal(dec("102.00")))
}

func TestAddRestingRejectsCrossedOrder(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "100.00", "1", 1)))
	err := ob.AddResting(restingOrder(model.SideBuy, "101.00", "1", 2))
	assert.ErrorIs(t, err, model.ErrCrossedOrder)
}

// Price levels must compare numerically, not lexicographically: "9.00" must
// sort below "40.00" on the ask side despite "9" > "4" as a string.
func TestPriceLevelsOrderNumerically(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "40.00", "1", 1)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "9.00", "1", 2)))

	lvl, ok := ob.BestAsk()
	require.True(t, ok)
	assert.True(t, lvl.Price.Equal(dec("9.00")))
}

func TestMatchFIFOWithinLevel(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	first := restingOrder(model.SideSell, "100.00", "1", 1)
	second := restingOrder(model.SideSell, "100.00", "1", 2)
	require.NoError(t, ob.AddResting(first))
	require.NoError(t, ob.AddResting(second))

	taker := &model.Order{
		OrderID:           uuid.New(),
		Side:              model.SideBuy,
		Kind:              model.KindMarket,
		QuantityOriginal:  dec("1"),
		QuantityRemaining: dec("1"),
	}
	fills := ob.Match(taker)
	require.Len(t, fills, 1)
	assert.Equal(t, first.OrderID, fills[0].Maker.OrderID)
	assert.True(t, second.QuantityRemaining.Equal(dec("1")))
}

func TestMatchNoTradeThrough(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "100.00", "1", 1)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "101.00", "1", 2)))

	taker := &model.Order{
		OrderID:           uuid.New(),
		Side:              model.SideBuy,
		Kind:              model.KindLimit,
		HasLimitPrice:     true,
		LimitPrice:        dec("100.00"),
		QuantityOriginal:  dec("5"),
		QuantityRemaining: dec("5"),
	}
	fills := ob.Match(taker)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Price.Equal(dec("100.00")))
	assert.True(t, taker.QuantityRemaining.Equal(dec("4")))
}

func TestMatchTradesAtMakerPrice(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "99.50", "2", 1)))

	taker := &model.Order{
		OrderID:           uuid.New(),
		Side:              model.SideBuy,
		Kind:              model.KindLimit,
		HasLimitPrice:     true,
		LimitPrice:        dec("100.00"),
		QuantityOriginal:  dec("1"),
		QuantityRemaining: dec("1"),
	}
	fills := ob.Match(taker)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Price.Equal(dec("99.50")))
}

func TestCanFullyFillFOKPrecheckDoesNotMutate(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	resting := restingOrder(model.SideSell, "100.00", "1", 1)
	require.NoError(t, ob.AddResting(resting))

	order := &model.Order{
		Side:              model.SideBuy,
		QuantityOriginal:  dec("2"),
		QuantityRemaining: dec("2"),
	}
	assert.False(t, ob.CanFullyFill(order))
	assert.True(t, resting.QuantityRemaining.Equal(dec("1")), "precheck must not mutate resting orders")

	order.QuantityRemaining = dec("1")
	assert.True(t, ob.CanFullyFill(order))
}

func TestCancelRemovesRestingOrderAndEmptyLevel(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	resting := restingOrder(model.SideBuy, "100.00", "1", 1)
	require.NoError(t, ob.AddResting(resting))

	cancelled, err := ob.Cancel(resting.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	_, ok := ob.BestBid()
	assert.False(t, ok)
}

func TestCancelUnknownOrderErrors(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	_, err := ob.Cancel(uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestIsCrossedDetectsInvariantViolation(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	ob.RestoreResting(restingOrder(model.SideBuy, "101.00", "1", 1))
	ob.RestoreResting(restingOrder(model.SideSell, "100.00", "1", 2))
	assert.True(t, ob.IsCrossed())
}

func TestSnapshotDepthBestFirst(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	require.NoError(t, ob.AddResting(restingOrder(model.SideBuy, "99.00", "1", 1)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideBuy, "100.00", "1", 2)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "102.00", "1", 3)))
	require.NoError(t, ob.AddResting(restingOrder(model.SideSell, "101.00", "1", 4)))

	depth := ob.SnapshotDepth(10)
	require.Len(t, depth.Bids, 2)
	assert.True(t, depth.Bids[0].Price.Equal(dec("100.00")))
	require.Len(t, depth.Asks, 2)
	assert.True(t, depth.Asks[0].Price.Equal(dec("101.00")))
}

func TestRestingOrdersRoundTripsThroughRestore(t *testing.T) {
	ob := orderbook.New("BTC/USDT", nil)
	o1 := restingOrder(model.SideBuy, "100.00", "1", 1)
	o2 := restingOrder(model.SideBuy, "100.00", "1", 2)
	require.NoError(t, ob.AddResting(o1))
	require.NoError(t, ob.AddResting(o2))

	snap := ob.RestingOrders()
	require.Len(t, snap, 2)

	fresh := orderbook.New("BTC/USDT", nil)
	for _, o := range snap {
		fresh.RestoreResting(o)
	}
	assert.Equal(t, snap, fresh.RestingOrders())
}

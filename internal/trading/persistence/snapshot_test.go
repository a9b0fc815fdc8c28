package persistence_test

import (
	"testing"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/fees"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const symbol = "BTC/USDT"

func newEngine() *engine.Engine {
	cfg := []engine.SymbolConfig{{Symbol: symbol, TickSize: decimal.NewFromInt(1)}}
	return engine.New(nil, eventbus.New(nil), fees.NewCalculator(nil), cfg, 64)
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := persistence.NewStore(dir, nil)

	src := newEngine()
	resting := src.Submit(engine.SubmitRequest{
		Symbol: symbol, Side: model.SideBuy, Kind: model.KindLimit,
		Quantity: decimal.NewFromInt(2), HasLimitPrice: true, LimitPrice: decimal.NewFromInt(100),
	})
	require.True(t, resting.Accepted)
	armed := src.Submit(engine.SubmitRequest{
		Symbol: symbol, Side: model.SideSell, Kind: model.KindStopMarket,
		Quantity: decimal.NewFromInt(1), HasStopPrice: true, StopPrice: decimal.NewFromInt(90),
	})
	require.True(t, armed.Accepted && armed.Armed)

	require.NoError(t, store.Export(src, symbol))
	src.Close()

	dst := newEngine()
	defer dst.Close()
	require.NoError(t, store.Import(dst, symbol))

	depth, err := dst.GetDepth(symbol, 10)
	require.NoError(t, err)
	require.Len(t, depth.Bids, 1)
	require.True(t, depth.Bids[0].Price.Equal(decimal.NewFromInt(100)))

	restored, armedRestored, err := dst.SnapshotSymbol(symbol)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	require.Len(t, armedRestored, 1)
	require.Equal(t, resting.Order.OrderID, restored[0].OrderID)
	require.Equal(t, armed.Order.OrderID, armedRestored[0].OrderID)
}

func TestImportMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	store := persistence.NewStore(dir, nil)
	eng := newEngine()
	defer eng.Close()
	require.NoError(t, store.Import(eng, symbol))

	depth, err := eng.GetDepth(symbol, 10)
	require.NoError(t, err)
	require.Empty(t, depth.Bids)
	require.Empty(t, depth.Asks)
}

func TestExportAllAndImportAllCoverEverySymbol(t *testing.T) {
	dir := t.TempDir()
	store := persistence.NewStore(dir, nil)

	cfg := []engine.SymbolConfig{
		{Symbol: "BTC/USDT", TickSize: decimal.NewFromInt(1)},
		{Symbol: "ETH/USDT", TickSize: decimal.NewFromInt(1)},
	}
	src := engine.New(nil, eventbus.New(nil), fees.NewCalculator(nil), cfg, 64)
	src.Submit(engine.SubmitRequest{Symbol: "BTC/USDT", Side: model.SideBuy, Kind: model.KindLimit, Quantity: decimal.NewFromInt(1), HasLimitPrice: true, LimitPrice: decimal.NewFromInt(10)})
	src.Submit(engine.SubmitRequest{Symbol: "ETH/USDT", Side: model.SideBuy, Kind: model.KindLimit, Quantity: decimal.NewFromInt(1), HasLimitPrice: true, LimitPrice: decimal.NewFromInt(5)})
	require.NoError(t, store.ExportAll(src))
	src.Close()

	dst := engine.New(nil, eventbus.New(nil), fees.NewCalculator(nil), cfg, 64)
	defer dst.Close()
	require.NoError(t, store.ImportAll(dst))

	for _, sym := range []string{"BTC/USDT", "ETH/USDT"} {
		depth, err := dst.GetDepth(sym, 10)
		require.NoError(t, err)
		require.Len(t, depth.Bids, 1)
	}
}

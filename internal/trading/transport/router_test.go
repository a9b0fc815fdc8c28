package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/fees"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/transport"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSymbol = "BTC/USDT"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := []engine.SymbolConfig{{Symbol: testSymbol, TickSize: decimal.NewFromInt(1)}}
	eng := engine.New(nil, eventbus.New(nil), fees.NewCalculator(nil), cfg, 64)
	t.Cleanup(eng.Close)
	return transport.NewRouter(eng, nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturnsOK(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitOrderAcceptsValidLimitOrder(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	rec := doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "BUY", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(1), LimitPrice: &price,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp transport.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Accepted)
	require.NotNil(t, resp.Order)
	require.Equal(t, "ACCEPTED", resp.Order.Status)
}

func TestSubmitOrderRejectsSymbolWithoutSlash(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	rec := doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: "BTCUSDT", Side: "BUY", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(1), LimitPrice: &price,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthzReportsUnavailableWhenCheckerFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := []engine.SymbolConfig{{Symbol: testSymbol, TickSize: decimal.NewFromInt(1)}}
	eng := engine.New(nil, eventbus.New(nil), fees.NewCalculator(nil), cfg, 64)
	t.Cleanup(eng.Close)

	router := gin.New()
	handler := transport.NewHandler(eng, nil)
	handler.SetHealthChecker(func(ctx context.Context) error { return errors.New("kafka unreachable") })
	router.GET("/healthz", handler.Healthz)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitOrderRejectsInvalidKind(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "BUY", Kind: "BOGUS", Quantity: decimal.NewFromInt(1),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrderRejectsMissingQuantity(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	rec := doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "BUY", Kind: "LIMIT", LimitPrice: &price,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitThenCancelOrder(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	rec := doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "BUY", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(1), LimitPrice: &price,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp transport.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	cancelRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/orders/"+testSymbol+"/"+resp.Order.OrderID, nil)
	router.ServeHTTP(cancelRec, req)
	require.Equal(t, http.StatusOK, cancelRec.Code)

	var cancelResp transport.CancelResponse
	require.NoError(t, json.Unmarshal(cancelRec.Body.Bytes(), &cancelResp))
	require.True(t, cancelResp.OK)
	require.Equal(t, "CANCELLED", cancelResp.Order.Status)
}

func TestCancelUnknownOrderReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/orders/"+testSymbol+"/"+"00000000-0000-0000-0000-000000000000", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDepthReflectsRestingOrders(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "BUY", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(2), LimitPrice: &price,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/depth/"+testSymbol, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var depth transport.DepthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &depth))
	require.Len(t, depth.Bids, 1)
	require.True(t, depth.Bids[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestGetDepthUnknownSymbolReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/depth/DOGE-USDT", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBBOReflectsBestLevels(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "SELL", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(1), LimitPrice: &price,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bbo/"+testSymbol, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var bbo transport.BBOResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bbo))
	require.True(t, bbo.HasAsk)
	require.True(t, bbo.AskPrice.Equal(decimal.NewFromInt(100)))
}

func TestGetRecentTradesAfterAMatch(t *testing.T) {
	router := newTestRouter(t)
	price := decimal.NewFromInt(100)
	doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "SELL", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(1), LimitPrice: &price,
	})
	doJSON(t, router, http.MethodPost, "/v1/orders", transport.SubmitOrderRequest{
		Symbol: testSymbol, Side: "BUY", Kind: "LIMIT",
		Quantity: decimal.NewFromInt(1), LimitPrice: &price,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/trades/"+testSymbol, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Trades []transport.TradeView `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Trades, 1)
	trade := body.Trades[0]
	assert.Equal(t, testSymbol, trade.Symbol)
	assert.True(t, trade.MakerFee.GreaterThan(decimal.Zero))
	assert.True(t, trade.TakerFee.GreaterThan(decimal.Zero))
	assert.False(t, trade.Timestamp.IsZero())
}

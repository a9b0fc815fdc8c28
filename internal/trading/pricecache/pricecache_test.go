package pricecache_test

import (
	"context"
	"testing"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/pricecache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientCacheIsANoOp(t *testing.T) {
	c := pricecache.New(nil, "", nil)
	require.NotNil(t, c)

	c.SetLastPrice(context.Background(), "BTC/USDT", decimal.NewFromInt(100))

	price, ok, err := c.GetLastPrice(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, price.IsZero())
}

func TestNilCacheReceiverIsSafe(t *testing.T) {
	var c *pricecache.Cache
	c.SetLastPrice(context.Background(), "BTC/USDT", decimal.NewFromInt(100))

	price, ok, err := c.GetLastPrice(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, price.IsZero())
}

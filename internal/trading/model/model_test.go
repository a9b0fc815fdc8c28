package model_test

import (
	"testing"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveTriggerDirection(t *testing.T) {
	cases := []struct {
		side model.Side
		kind model.Kind
		want model.TriggerDirection
	}{
		{model.SideBuy, model.KindStopMarket, model.TriggerAbove},
		{model.SideBuy, model.KindStopLimit, model.TriggerAbove},
		{model.SideBuy, model.KindTakeProfit, model.TriggerBelow},
		{model.SideSell, model.KindStopMarket, model.TriggerBelow},
		{model.SideSell, model.KindTakeProfit, model.TriggerAbove},
	}
	for _, c := range cases {
		got := model.DeriveTriggerDirection(c.side, c.kind)
		assert.Equal(t, c.want, got, "side=%s kind=%s", c.side, c.kind)
	}
}

func TestKindExecutionKind(t *testing.T) {
	assert.Equal(t, model.KindMarket, model.KindStopMarket.ExecutionKind())
	assert.Equal(t, model.KindLimit, model.KindStopLimit.ExecutionKind())
	assert.Equal(t, model.KindLimit, model.KindTakeProfit.ExecutionKind())
}

func TestOrderReduceToZeroMarksFilled(t *testing.T) {
	o := &model.Order{
		QuantityOriginal:  decimal.NewFromInt(10),
		QuantityRemaining: decimal.NewFromInt(10),
		Status:            model.StatusAccepted,
	}
	o.Reduce(decimal.NewFromInt(4))
	assert.Equal(t, model.StatusPartial, o.Status)
	assert.True(t, o.QuantityRemaining.Equal(decimal.NewFromInt(6)))

	o.Reduce(decimal.NewFromInt(6))
	assert.Equal(t, model.StatusFilled, o.Status)
	assert.True(t, o.QuantityRemaining.IsZero())
}

func TestOrderReduceNeverNegative(t *testing.T) {
	o := &model.Order{
		QuantityOriginal:  decimal.NewFromInt(5),
		QuantityRemaining: decimal.NewFromInt(5),
	}
	o.Reduce(decimal.NewFromInt(9))
	assert.True(t, o.QuantityRemaining.IsZero())
	assert.False(t, o.QuantityRemaining.IsNegative())
}

func TestOrderIsDone(t *testing.T) {
	o := &model.Order{Status: model.StatusPartial}
	assert.False(t, o.IsDone())
	o.Status = model.StatusFilled
	assert.True(t, o.IsDone())
	o.Status = model.StatusCancelled
	assert.True(t, o.IsDone())
	o.Status = model.StatusRejected
	assert.True(t, o.IsDone())
}

func TestOrderCloneIsIndependent(t *testing.T) {
	o := &model.Order{QuantityRemaining: decimal.NewFromInt(3)}
	c := o.Clone()
	c.QuantityRemaining = decimal.NewFromInt(99)
	assert.True(t, o.QuantityRemaining.Equal(decimal.NewFromInt(3)))
}

package ta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-quant-bot/internal/model"
)

func risingCandles(n int) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = model.Candle{Close: price, Open: price - 0.5, High: price + 1, Low: price - 1}
	}
	return candles
}

func TestComputeRequiresHistory(t *testing.T) {
	_, ok := Compute(risingCandles(MinHistoryLen - 1))
	assert.False(t, ok)

	_, ok = Compute(risingCandles(MinHistoryLen))
	assert.True(t, ok)
}

func TestComputeOnRisingSeries(t *testing.T) {
	snap, ok := Compute(risingCandles(50))
	require.True(t, ok)

	// 持续上涨的序列：RSI 饱和在高位，价格在均线之上，布林带上轨在下轨之上
	assert.Greater(t, snap.RSI, 50.0)
	assert.LessOrEqual(t, snap.RSI, 100.0)
	assert.Greater(t, snap.MA, 0.0)
	assert.GreaterOrEqual(t, snap.BBandsUp, snap.MA)
	assert.LessOrEqual(t, snap.BBandsDn, snap.MA)
}

func TestComputeIsDeterministic(t *testing.T) {
	a, _ := Compute(risingCandles(40))
	b, _ := Compute(risingCandles(40))
	assert.Equal(t, a, b)
}

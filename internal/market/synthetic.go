package market

import (
	"math"
	"math/rand"
	"time"

	"crypto-quant-bot/internal/model"
)

// Synthetic 生成确定性的合成 K 线序列，作为行情接口失败时的兜底数据。
// 相同的 (seed, count, interval, now) 输入总是产生相同的序列，方便测试。
// 序列按时间升序排列，最后一根 K 线锚定在 now。
func Synthetic(seed int64, count int, interval time.Duration, now time.Time) []model.Candle {
	if count <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	candles := make([]model.Candle, 0, count)

	// 起始价格落在 10000 ~ 60000 区间
	lastClose := rng.Float64()*50000 + 10000

	for i := 0; i < count; i++ {
		ts := now.Add(-time.Duration(count-1-i) * interval)

		open := lastClose
		// 在开盘价上下约 5% 的范围内扰动
		high := open * (1 + (rng.Float64()-0.45)*0.05)
		low := open * (1 - (rng.Float64()-0.45)*0.05)
		close := (high + low) / 2 * (1 + (rng.Float64()-0.5)*0.02)

		// 保证 high >= max(open, close) 且 low <= min(open, close)
		high = math.Max(high, math.Max(open, close))
		low = math.Min(low, math.Min(open, close))

		candles = append(candles, model.Candle{
			Time:   ts.UnixMilli(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: rng.Float64()*1000 + 100,
		})
		lastClose = close
	}

	return candles
}

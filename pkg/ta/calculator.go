package ta

import (
	"github.com/markcheno/go-talib"

	"crypto-quant-bot/internal/model"
)

// MinHistoryLen 计算指标所需的最小历史长度 (MA20/BBands20 至少需要 20 根)
const MinHistoryLen = 20

// Snapshot 保存从一段 K 线历史计算出的最新指标值
type Snapshot struct {
	RSI      float64 // RSI 14
	MA       float64 // SMA 20
	BBandsUp float64 // 布林带上轨 (20, 2)
	BBandsDn float64 // 布林带下轨 (20, 2)
}

// Compute 从 K 线序列计算指标快照。历史不足时返回 ok=false。
// 纯函数：相同的输入总是产生相同的快照。
func Compute(candles []model.Candle) (Snapshot, bool) {
	if len(candles) < MinHistoryLen {
		return Snapshot{}, false
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	// --- 均线 (MA 20) ---
	maResult := talib.Sma(closes, 20)

	// --- 相对强弱指数 (RSI 14) ---
	rsiResult := talib.Rsi(closes, 14)

	// --- 布林带 (BBands 20, 2) ---
	bbandsUp, _, bbandsDn := talib.BBands(closes, 20, 2, 2, talib.SMA)

	return Snapshot{
		RSI:      rsiResult[len(rsiResult)-1],
		MA:       maResult[len(maResult)-1],
		BBandsUp: bbandsUp[len(bbandsUp)-1],
		BBandsDn: bbandsDn[len(bbandsDn)-1],
	}, true
}

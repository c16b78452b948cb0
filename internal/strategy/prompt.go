package strategy

import (
	"fmt"
	"strings"
	"time"

	"crypto-quant-bot/internal/model"
	"crypto-quant-bot/pkg/ta"
)

// PromptCandleCount 嵌入提示词的最近 K 线数量
const PromptCandleCount = 5

// hintByStrategyID 是按策略 ID 选择的标准参数提示文本
func hintByStrategyID(id string) string {
	switch id {
	case "mean_reversion":
		return "RSI period: 14, Bollinger Bands period: 20, std dev: 2."
	case "trend_following":
		return "Moving Average periods: 50 and 200."
	case "arbitrage":
		if len(model.AvailableAssets) > 1 {
			return fmt.Sprintf("Compare with %s.", model.AvailableAssets[1].Symbol)
		}
	}
	return ""
}

// BuildSignalPrompt 从当前选择和行情构造确定性的信号提示词。
// 结构：资产与当前价格、策略描述、最近 5 根 ISO 时间戳的 OHLCV、
// 按策略 ID 选择的参数提示、可选的指标快照、JSON 输出要求。
func BuildSignalPrompt(asset model.Asset, strat model.Strategy, candles []model.Candle) string {
	latest := candles[len(candles)-1]

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"Analyze the following market context for %s (%s) and generate a trading signal based on the %s strategy.\n",
		asset.Name, asset.Symbol, strat.Name)
	fmt.Fprintf(&sb, "Current Price: %g USD.\n", latest.Close)
	fmt.Fprintf(&sb, "Strategy Description: %s.\n", strat.Description)

	sb.WriteString("Recent Market Data (last 5 periods, OHLCV):\n")
	sb.WriteString(formatCandles(candles, PromptCandleCount))

	if hint := hintByStrategyID(strat.ID); hint != "" {
		fmt.Fprintf(&sb, "Consider standard parameters for %s, for example:\n%s\n", strat.Name, hint)
	}

	// 历史足够时附加计算好的指标快照作为额外上下文
	if snap, ok := ta.Compute(candles); ok {
		fmt.Fprintf(&sb,
			"Current indicators: RSI(14): %.2f, SMA(20): %.2f, Bollinger Bands(20,2): upper %.2f / lower %.2f.\n",
			snap.RSI, snap.MA, snap.BBandsUp, snap.BBandsDn)
	}

	sb.WriteString(`Output a JSON object with the following structure:
{
  "signal": "BUY" | "SELL" | "HOLD",
  "confidence": number (0.0 to 1.0),
  "reasoning": "Brief explanation for the signal.",
  "suggestedParameters": { }
}
Only provide the JSON object.`)

	return sb.String()
}

// BuildBacktestPrompt 构造描述性的回测摘要提示词，响应原样展示，不产生成交
func BuildBacktestPrompt(asset model.Asset, strat model.Strategy) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"Provide a conceptual summary of a backtest for %s (%s) using the %s strategy over a hypothetical past year.\n",
		asset.Name, asset.Symbol, strat.Name)
	fmt.Fprintf(&sb, "Strategy Description: %s.\n", strat.Description)
	sb.WriteString(`Assume typical market conditions for crypto.
Include hypothetical performance metrics like:
- Total Return (%)
- Max Drawdown (%)
- Sharpe Ratio
- Sortino Ratio
- Calmar Ratio
- Number of Trades
Also, briefly explain how Monte Carlo simulation could assess the robustness of these results and what Value at Risk (VaR) at 95% confidence might imply for this strategy.
Keep the response concise and informative. Structure as a summary.`)
	return sb.String()
}

// formatCandles 把最近 n 根 K 线格式化为 ISO 时间戳的 OHLCV 行
func formatCandles(candles []model.Candle, n int) string {
	start := len(candles) - n
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	for _, c := range candles[start:] {
		fmt.Fprintf(&sb, "Time: %s, Open: %g, High: %g, Low: %g, Close: %g, Volume: %g\n",
			time.UnixMilli(c.Time).UTC().Format(time.RFC3339), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	return sb.String()
}

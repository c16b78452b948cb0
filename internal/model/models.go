package model

import "fmt"

// Asset 代表一个可选择的交易资产 (不可变的参考数据)
type Asset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"` // 交易所符号，例如 "BTCUSDT"
}

// Strategy 代表一个命名的策略标签 (不可变的参考数据)
type Strategy struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  map[string]float64 `json:"parameters,omitempty"`
}

// Candle 代表一根 OHLCV K 线，时间戳为毫秒
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// TradeType 定义了模拟成交方向
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade 记录一笔模拟成交，只在会话内存活，从不修改
type Trade struct {
	ID        string    `json:"id"`
	Asset     string    `json:"asset"`    // 交易所符号
	Strategy  string    `json:"strategy"` // 策略显示名
	Type      TradeType `json:"type"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"` // 固定为 1
	Timestamp int64     `json:"timestamp"`
	PnL       float64   `json:"pnl"` // 从不计算，恒为 0
}

// NewTradeID 由创建时间和序号派生出唯一 ID
func NewTradeID(unixMilli int64, seq int) string {
	return fmt.Sprintf("trade-%d-%d", unixMilli, seq)
}

// BotState 定义了机器人生命周期状态
type BotState string

const (
	BotRunning BotState = "RUNNING"
	BotStopped BotState = "STOPPED"
	BotIdle    BotState = "IDLE" // 预留状态，当前不会进入
)

// PerformanceMetrics 是展示层的静态占位数据，从不真正计算
type PerformanceMetrics struct {
	TotalReturn   float64 `json:"totalReturn"`
	SharpeRatio   float64 `json:"sharpeRatio"`
	SortinoRatio  float64 `json:"sortinoRatio"`
	CalmarRatio   float64 `json:"calmarRatio"`
	MaxDrawdown   float64 `json:"maxDrawdown"`
	TradesCount   int     `json:"tradesCount"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
}

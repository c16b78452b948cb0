package bot

import (
	"sync"

	"crypto-quant-bot/internal/model"
)

// Ledger 保存会话内的模拟成交记录。
// 只追加，不修改，不删除；顺序严格保持最新在前。
type Ledger struct {
	mu     sync.RWMutex
	trades []model.Trade
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Prepend 把一笔新成交插入到队首
func (l *Ledger) Prepend(t model.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = append([]model.Trade{t}, l.trades...)
}

// Trades 返回当前记录的副本，最新在前
func (l *Ledger) Trades() []model.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len 返回记录数，用于派生 Trade ID 的序号部分
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

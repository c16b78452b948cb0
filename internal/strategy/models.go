package strategy

import "fmt"

// SignalKind 定义了生成服务给出的建议类型
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// SignalResponse 是从生成服务响应中解析出的结构化交易建议。
// 每个 tick 产生一次，只用于派生 Trade 和 insight 文本，不做持久化。
type SignalResponse struct {
	Signal     SignalKind `json:"signal"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	// 生成端给出的参数建议是自由形式的，不约束值类型
	SuggestedParameters map[string]interface{} `json:"suggestedParameters,omitempty"`
}

// Validate 检查建议类型和置信度是否在定义域内
func (r *SignalResponse) Validate() error {
	switch r.Signal {
	case SignalBuy, SignalSell, SignalHold:
	default:
		return fmt.Errorf("unknown signal kind: %q", r.Signal)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range [0,1]", r.Confidence)
	}
	return nil
}

// IsActionable 返回该建议是否应该产生一笔模拟成交
func (r *SignalResponse) IsActionable() bool {
	return r.Signal == SignalBuy || r.Signal == SignalSell
}

// Insight 把解析出的建议格式化为展示给用户的文本
func (r *SignalResponse) Insight() string {
	return fmt.Sprintf("Signal: %s, Confidence: %.2f\nReasoning: %s",
		r.Signal, r.Confidence, r.Reasoning)
}

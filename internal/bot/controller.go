package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"crypto-quant-bot/internal/model"
	"crypto-quant-bot/internal/service"
	"crypto-quant-bot/internal/strategy"
)

// MarketGateway 是信号循环消费的行情接口。
// 实现方保证永不失败：错误在网关内部兜底为合成数据。
type MarketGateway interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) []model.Candle
}

// InsightGateway 是信号循环消费的文本生成接口
type InsightGateway interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out interface{}) error
}

var (
	// ErrInsightUnavailable 表示文本生成服务未配置，属于配置错误
	ErrInsightUnavailable = errors.New("insight service not available")
	// ErrBotRunning 表示操作在 RUNNING 状态下被策略禁用
	ErrBotRunning = errors.New("bot is running")
	// ErrUnknownID 表示资产或策略 ID 不在目录中
	ErrUnknownID = errors.New("unknown id")
)

// Snapshot 是发布给展示层的不可变状态快照
type Snapshot struct {
	State    model.BotState           `json:"botState"`
	Looping  bool                     `json:"looping"`
	Busy     bool                     `json:"busy"`
	Asset    model.Asset              `json:"asset"`
	Strategy model.Strategy           `json:"strategy"`
	Insight  string                   `json:"insight"`
	Candles  []model.Candle           `json:"marketData"`
	Trades   []model.Trade            `json:"trades"`
	Metrics  model.PerformanceMetrics `json:"performanceMetrics"`
	Logs     []string                 `json:"logs"`
}

// Controller 持有机器人生命周期状态，驱动信号循环。
// 状态机只有两个可达状态：STOPPED (初始) 和 RUNNING，
// 转换只由用户的 Start/Stop 操作触发。
type Controller struct {
	cfg     service.BotConfig
	logger  *zap.Logger
	market  MarketGateway
	insight InsightGateway

	mu         sync.RWMutex
	state      model.BotState
	looping    bool
	busy       bool
	asset      model.Asset
	strat      model.Strategy
	insightTxt string
	candles    []model.Candle
	metrics    model.PerformanceMetrics
	cancelLoop context.CancelFunc

	ledger *Ledger
	logs   *LogRing

	// tick 互斥保护：上一个 tick 未完成时新 tick 直接跳过
	inFlight atomic.Bool

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}

	nowFn func() time.Time
}

// NewController 初始化控制器，默认选中目录中的第一个资产和策略
func NewController(cfg service.BotConfig, market MarketGateway, insight InsightGateway, logger *zap.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "controller")),
		market:  market,
		insight: insight,
		state:   model.BotStopped,
		asset:   model.AvailableAssets[0],
		strat:   model.AvailableStrategies[0],
		ledger:  NewLedger(),
		logs:    NewLogRing(),
		subs:    make(map[chan Snapshot]struct{}),
		nowFn:   time.Now,
	}
}

// Start 启动机器人。loop=false 只执行一次 tick；loop=true 立即执行一次
// 并按固定间隔重复，直到 Stop。
// 已经在 RUNNING 时重复调用会更新 looping 标志并重新触发：旧定时器先退役，
// 单次模式立即再 tick 一次 (in-flight 保护仍然生效)。
// 前置条件：文本生成服务必须可用，否则状态保持不变。
func (c *Controller) Start(loop bool) error {
	if c.insight == nil {
		c.addLog("Cannot start bot: insight service not available.")
		c.setInsight("Error: insight service is not available. This usually means the API key is missing or invalid.")
		return ErrInsightUnavailable
	}

	c.mu.Lock()
	c.state = model.BotRunning
	c.looping = loop
	oldCancel := c.cancelLoop
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelLoop = cancel
	c.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
	}

	if loop {
		c.addLog(fmt.Sprintf("Bot started in continuous looping mode. Generating signal every %s.", c.cfg.LoopInterval))
		go c.runLoop(ctx)
	} else {
		c.addLog("Bot started for single signal generation.")
		go c.tick(ctx)
	}

	c.publish()
	return nil
}

// Stop 停止机器人并撤销定时器。幂等：重复调用只重申 STOPPED 状态。
// 取消会传递到正在进行的 tick 的网络调用中，迟到的结果会被丢弃。
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == model.BotStopped {
		c.looping = false
		c.mu.Unlock()
		return
	}
	c.state = model.BotStopped
	c.looping = false
	cancel := c.cancelLoop
	c.cancelLoop = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.addLog("Bot stopped manually.")
	c.publish()
}

// runLoop 是循环模式的主体：立即 tick 一次，然后按固定间隔重复
func (c *Controller) runLoop(ctx context.Context) {
	c.tick(ctx)

	ticker := time.NewTicker(c.cfg.LoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Signal loop cleaned up")
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick 执行一次 取数 → 提示词 → 生成 → 解析 → 记录 的完整序列。
// 任何失败都终结为一条日志和一个安全的 insight 文本，绝不让循环崩溃。
func (c *Controller) tick(ctx context.Context) {
	c.mu.RLock()
	running := c.state == model.BotRunning
	asset := c.asset
	strat := c.strat
	c.mu.RUnlock()

	if !running || c.insight == nil || asset.ID == "" || strat.ID == "" {
		if running {
			c.addLog("Cannot generate signal: conditions not met (insight service, asset, or strategy missing).")
		}
		return
	}

	// 上一个 tick 还在进行中时跳过本次，避免并发 tick 互相覆盖
	if !c.inFlight.CompareAndSwap(false, true) {
		c.addLog("Previous tick still in flight, skipping this run.")
		return
	}
	defer c.inFlight.Store(false)

	c.setBusy(true)
	defer c.setBusy(false)

	// 新一轮生成开始时清空上一轮的 insight，展示层据此进入加载态
	c.applyInsight(ctx, "")

	c.addLog(fmt.Sprintf("Generating signal for %s using %s...", asset.Symbol, strat.Name))

	candles := c.market.FetchCandles(ctx, asset.Symbol, c.cfg.CandleInterval, c.cfg.CandleLimit)
	if len(candles) == 0 {
		c.addLog("Signal generation skipped: No market data available.")
		return
	}
	c.applyCandles(ctx, candles)
	c.addLog(fmt.Sprintf("Market data for %s updated.", asset.Symbol))

	latestPrice := candles[len(candles)-1].Close
	prompt := strategy.BuildSignalPrompt(asset, strat, candles)

	var sig strategy.SignalResponse
	err := c.insight.GenerateJSON(ctx, prompt, &sig)
	if err == nil {
		err = sig.Validate()
	}
	if err != nil {
		msg := fmt.Sprintf("Error generating signal: %s", err)
		c.applyInsight(ctx, msg)
		c.addLog(msg)
		return
	}

	c.applySignal(ctx, asset, strat, &sig, latestPrice)
}

// applySignal 把解析出的建议落到共享状态：更新 insight 文本，
// BUY/SELL 时合成一笔 quantity=1 的模拟成交插入队首
func (c *Controller) applySignal(ctx context.Context, asset model.Asset, strat model.Strategy, sig *strategy.SignalResponse, price float64) {
	c.mu.Lock()
	if ctx.Err() != nil || c.state != model.BotRunning {
		c.mu.Unlock()
		c.logger.Info("Discarding stale tick result", zap.String("Symbol", asset.Symbol))
		return
	}
	c.insightTxt = sig.Insight()
	c.mu.Unlock()

	c.addLog(fmt.Sprintf("Insight: %s signal for %s with confidence %.2f. Reasoning: %s",
		sig.Signal, asset.Symbol, sig.Confidence, sig.Reasoning))

	if sig.IsActionable() {
		now := c.nowFn().UnixMilli()
		trade := model.Trade{
			ID:        model.NewTradeID(now, c.ledger.Len()),
			Asset:     asset.Symbol,
			Strategy:  strat.Name,
			Type:      model.TradeType(sig.Signal),
			Price:     price,
			Quantity:  1,
			Timestamp: now,
			PnL:       0,
		}
		c.ledger.Prepend(trade)
		c.addLog(fmt.Sprintf("Simulated %s trade for %s at %g.", sig.Signal, asset.Symbol, price))
	}

	c.publish()
}

// RunBacktest 构造回测摘要提示词并以纯文本模式调用生成服务，
// 响应原样存为当前 insight。RUNNING 状态下按策略拒绝，避免重叠调用。
func (c *Controller) RunBacktest(ctx context.Context) error {
	if c.insight == nil {
		c.addLog("Cannot run backtest: insight service not available.")
		c.setInsight("Backtest requires the insight service. Check API key and configuration.")
		return ErrInsightUnavailable
	}

	c.mu.Lock()
	if c.state == model.BotRunning {
		c.mu.Unlock()
		c.addLog("Backtest refused: bot is running.")
		return ErrBotRunning
	}
	asset := c.asset
	strat := c.strat
	c.busy = true
	c.mu.Unlock()
	c.publish()

	defer c.setBusy(false)

	c.setInsight("")
	c.addLog(fmt.Sprintf("Running simulated backtest for %s with %s...", asset.Symbol, strat.Name))

	text, err := c.insight.GenerateText(ctx, strategy.BuildBacktestPrompt(asset, strat))
	if err != nil {
		msg := fmt.Sprintf("Error running backtest: %s", err)
		c.setInsight(msg)
		c.addLog(msg)
		return err
	}

	c.setInsight(text)
	c.addLog(fmt.Sprintf("Backtest simulation summary received for %s.", asset.Symbol))
	return nil
}

// SelectAsset 切换当前资产并刷新其行情数据
func (c *Controller) SelectAsset(ctx context.Context, id string) error {
	asset, ok := model.AssetByID(id)
	if !ok {
		return fmt.Errorf("%w: asset %q", ErrUnknownID, id)
	}

	c.mu.Lock()
	c.asset = asset
	c.mu.Unlock()

	c.RefreshMarketData(ctx)
	c.publish()
	return nil
}

// SelectStrategy 切换当前策略
func (c *Controller) SelectStrategy(id string) error {
	strat, ok := model.StrategyByID(id)
	if !ok {
		return fmt.Errorf("%w: strategy %q", ErrUnknownID, id)
	}

	c.mu.Lock()
	c.strat = strat
	c.mu.Unlock()

	c.publish()
	return nil
}

// RefreshMarketData 为当前资产拉取 K 线，供图表展示
func (c *Controller) RefreshMarketData(ctx context.Context) {
	c.mu.RLock()
	asset := c.asset
	c.mu.RUnlock()

	c.addLog(fmt.Sprintf("Fetching market data for %s...", asset.Symbol))
	candles := c.market.FetchCandles(ctx, asset.Symbol, c.cfg.CandleInterval, c.cfg.CandleLimit)
	c.applyCandles(ctx, candles)
	c.addLog(fmt.Sprintf("Market data for %s updated.", asset.Symbol))
}

// Snapshot 返回当前状态的深拷贝快照
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candles := make([]model.Candle, len(c.candles))
	copy(candles, c.candles)

	return Snapshot{
		State:    c.state,
		Looping:  c.looping,
		Busy:     c.busy,
		Asset:    c.asset,
		Strategy: c.strat,
		Insight:  c.insightTxt,
		Candles:  candles,
		Trades:   c.ledger.Trades(),
		Metrics:  c.metrics,
		Logs:     c.logs.Entries(),
	}
}

// Subscribe 返回接收状态快照的通道和对应的退订函数。
// 发布是非阻塞的：订阅者积压时丢弃快照，后续快照会带上全量状态。
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

// publish 把最新快照推送给所有订阅者
func (c *Controller) publish() {
	snap := c.Snapshot()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// 订阅者没跟上，丢弃这一帧
		}
	}
}

// applyCandles 在循环未被取消时更新图表数据
func (c *Controller) applyCandles(ctx context.Context, candles []model.Candle) {
	if ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	c.candles = candles
	c.mu.Unlock()
	c.publish()
}

// applyInsight 在循环未被取消且仍在 RUNNING 时更新 insight 文本
func (c *Controller) applyInsight(ctx context.Context, text string) {
	c.mu.Lock()
	if ctx.Err() != nil || c.state != model.BotRunning {
		c.mu.Unlock()
		return
	}
	c.insightTxt = text
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) setInsight(text string) {
	c.mu.Lock()
	c.insightTxt = text
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) setBusy(busy bool) {
	c.mu.Lock()
	c.busy = busy
	c.mu.Unlock()
	c.publish()
}

// addLog 同时写入用户可见的日志环和结构化日志
func (c *Controller) addLog(msg string) {
	c.logs.Add(msg)
	c.logger.Info(msg)
	c.publish()
}

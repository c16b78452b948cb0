package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"crypto-quant-bot/internal/model"
	"crypto-quant-bot/internal/service"
)

// Gateway 封装 Binance REST 行情接口。
// FetchCandles 对调用方永不失败：任何传输或解码错误都会回退到合成数据，
// 保证信号循环总是有数据可用。
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	// 测试钩子：覆盖合成数据的随机种子和锚定时间
	seedFn func() int64
	nowFn  func() time.Time
}

// NewGateway 初始化行情网关
func NewGateway(baseURL string, logger *zap.Logger) *Gateway {
	return &Gateway{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With(zap.String("gateway", "binance")),
		seedFn:     func() int64 { return time.Now().UnixNano() },
		nowFn:      time.Now,
	}
}

// FetchCandles 拉取历史 K 线。失败时记录日志并返回合成序列，不向上抛错。
func (g *Gateway) FetchCandles(ctx context.Context, symbol, interval string, limit int) []model.Candle {
	candles, err := g.fetchKlines(ctx, symbol, interval, limit)
	if err != nil {
		g.logger.Warn("Falling back to synthetic market data",
			zap.String("Symbol", symbol), zap.Error(err))

		spacing, perr := service.ParseIntervalDuration(interval)
		if perr != nil {
			spacing = time.Hour
		}
		return Synthetic(g.seedFn(), limit, spacing, g.nowFn())
	}
	return candles
}

// fetchKlines 调用 /klines，响应是六元组数组，数值字段为字符串编码的浮点数
func (g *Gateway) fetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/klines?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error building klines request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching klines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, fmt.Errorf("error parsing klines: %w", err)
	}

	candles := make([]model.Candle, 0, len(rawKlines))
	for _, raw := range rawKlines {
		if len(raw) < 6 {
			return nil, fmt.Errorf("unexpected kline shape: %d fields", len(raw))
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			return nil, fmt.Errorf("unexpected openTime type %T", raw[0])
		}
		candles = append(candles, model.Candle{
			Time:   int64(openTime),
			Open:   parseFloat(raw[1]),
			High:   parseFloat(raw[2]),
			Low:    parseFloat(raw[3]),
			Close:  parseFloat(raw[4]),
			Volume: parseFloat(raw[5]),
		})
	}

	return candles, nil
}

// FetchPrice 查询最新成交价 (/ticker/price)。与 K 线不同，失败会向上抛错。
func (g *Gateway) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/ticker/price?symbol=%s", g.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("error building ticker request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error fetching ticker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("error parsing ticker: %w", err)
	}

	price, err := service.StringToFloat(ticker.Price)
	if err != nil {
		return 0, fmt.Errorf("invalid ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}

// parseFloat 容忍字符串和数值两种编码
func parseFloat(v interface{}) float64 {
	switch x := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case float64:
		return x
	default:
		return 0
	}
}

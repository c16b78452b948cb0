package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"crypto-quant-bot/internal/api"
	"crypto-quant-bot/internal/bot"
	"crypto-quant-bot/internal/insight"
	"crypto-quant-bot/internal/market"
	"crypto-quant-bot/internal/service"
)

func main() {
	service.InitLogger()
	defer service.Logger.Sync()

	configPath := "config"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		service.Logger.Fatal("Configuration directory 'config/' not found. Please create it.")
	}
	cfg := service.LoadConfig(configPath)

	// 唯一的必要凭证：缺失是致命的配置错误，不重试
	if cfg.Gemini.APIKey == "" {
		service.Logger.Fatal("Configuration Error: the Gemini API key (GEMINI_API_KEY) is not set in your environment variables.")
	}

	// 1. 行情网关 (失败时内部兜底为合成数据)
	marketGw := market.NewGateway(cfg.Exchange.RESTURL, service.Logger)

	// 2. 文本生成网关
	insightGw, err := insight.NewClient(insight.ClientConfig{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		Model:       cfg.Gemini.Model,
		MaxTokens:   cfg.Gemini.MaxTokens,
		Temperature: cfg.Gemini.Temperature,
		Timeout:     cfg.Gemini.Timeout,
	}, service.Logger)
	if err != nil {
		service.Logger.Fatal("Failed to initialize insight service", zap.Error(err))
	}

	// 3. 信号循环控制器
	controller := bot.NewController(cfg.Bot, marketGw, insightGw, service.Logger)

	// 启动时预取一次默认资产的行情，供图表首屏使用
	controller.RefreshMarketData(context.Background())

	// 4. Dashboard HTTP/WS 表面
	server := api.NewServer(controller, marketGw, service.Logger)
	if err := server.Run(cfg.Server.Addr); err != nil {
		service.Logger.Fatal("HTTP server exited", zap.Error(err))
	}
}

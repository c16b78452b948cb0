package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto-quant-bot/internal/bot"
	"crypto-quant-bot/internal/model"
)

// PriceFetcher 是价格端点消费的现价查询接口
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
}

// Server 是 Dashboard 的 HTTP 表面，所有操作都委托给 Controller
type Server struct {
	controller *bot.Controller
	prices     PriceFetcher
	hub        *Hub
	logger     *zap.Logger
	engine     *gin.Engine
}

func NewServer(controller *bot.Controller, prices PriceFetcher, logger *zap.Logger) *Server {
	s := &Server{
		controller: controller,
		prices:     prices,
		hub:        NewHub(controller, logger),
		logger:     logger.With(zap.String("component", "api")),
	}
	s.engine = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	api := r.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.GET("/assets", s.handleAssets)
		api.GET("/strategies", s.handleStrategies)
		api.GET("/trades", s.handleTrades)
		api.GET("/price", s.handlePrice)
		api.POST("/bot/start", s.handleStart)
		api.POST("/bot/stop", s.handleStop)
		api.POST("/backtest", s.handleBacktest)
		api.POST("/selection", s.handleSelection)
	}
	r.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWS(c.Writer, c.Request)
	})

	return r
}

// Run 启动快照广播和 HTTP 监听，阻塞直到监听退出
func (s *Server) Run(addr string) error {
	go s.hub.Run()
	s.logger.Info("Dashboard API listening", zap.String("Addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleAssets(c *gin.Context) {
	c.JSON(http.StatusOK, model.AvailableAssets)
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, model.AvailableStrategies)
}

func (s *Server) handleTrades(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Snapshot().Trades)
}

// handlePrice 返回指定交易对的现价，缺省为当前选中的资产
func (s *Server) handlePrice(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		symbol = s.controller.Snapshot().Asset.Symbol
	}

	price, err := s.prices.FetchPrice(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price})
}

type startRequest struct {
	Loop bool `json:"loop"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.controller.Start(req.Loop); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleStop(c *gin.Context) {
	s.controller.Stop()
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleBacktest(c *gin.Context) {
	err := s.controller.RunBacktest(c.Request.Context())
	switch {
	case errors.Is(err, bot.ErrBotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, bot.ErrInsightUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	// 生成失败已经以 insight 文本的形式呈现，对 HTTP 层不算失败
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

type selectionRequest struct {
	AssetID    string `json:"assetId"`
	StrategyID string `json:"strategyId"`
}

func (s *Server) handleSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.AssetID != "" {
		if err := s.controller.SelectAsset(c.Request.Context(), req.AssetID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.StrategyID != "" {
		if err := s.controller.SelectStrategy(req.StrategyID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, s.controller.Snapshot())
}

// internal/service/config.go
package service

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig 定义了 Dashboard HTTP 服务的监听配置
type ServerConfig struct {
	Addr string
}

// ExchangeConfig 定义了行情数据源的连接信息
type ExchangeConfig struct {
	Name    string
	RESTURL string // 例如 https://api.binance.com/api/v3
}

// GeminiConfig 定义了文本生成服务的调用参数
// APIKey 只从环境变量 GEMINI_API_KEY 读取，不写入配置文件
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// BotConfig 定义了信号循环的运行参数
type BotConfig struct {
	LoopInterval   time.Duration // 循环模式下两次 tick 的间隔
	CandleInterval string        // K 线周期，固定 "1h"
	CandleLimit    int           // 每次拉取的 K 线数量
}

// Config 存储加载后的全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Exchange ExchangeConfig `mapstructure:"Exchange"`
	Gemini   GeminiConfig   `mapstructure:"Gemini"`
	Bot      BotConfig      `mapstructure:"Bot"`
}

// GlobalConfig 存储加载后的全局配置
var GlobalConfig Config

// LoadConfig 读取并解析配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigName("config") // 文件名是 config
	viper.SetConfigType("yaml")   // 文件类型是 yaml
	viper.AddConfigPath(configPath)

	// 唯一的必要凭证从环境变量注入
	viper.BindEnv("Gemini.APIKey", "GEMINI_API_KEY")

	// 查找并读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	// 将配置绑定到结构体
	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	applyDefaults(&GlobalConfig)

	return &GlobalConfig
}

// applyDefaults 补齐未配置的默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Exchange.RESTURL == "" {
		cfg.Exchange.RESTURL = "https://api.binance.com/api/v3"
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash-preview-04-17"
	}
	if cfg.Gemini.MaxTokens == 0 {
		cfg.Gemini.MaxTokens = 1024
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = 30 * time.Second
	}
	if cfg.Bot.LoopInterval == 0 {
		cfg.Bot.LoopInterval = 30 * time.Second
	}
	if cfg.Bot.CandleInterval == "" {
		cfg.Bot.CandleInterval = "1h"
	}
	if cfg.Bot.CandleLimit == 0 {
		cfg.Bot.CandleLimit = 50
	}
}

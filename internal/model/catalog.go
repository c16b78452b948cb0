package model

// AvailableAssets 是可供选择的资产目录，只读
var AvailableAssets = []Asset{
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTCUSDT"},
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETHUSDT"},
	{ID: "solana", Name: "Solana", Symbol: "SOLUSDT"},
	{ID: "cardano", Name: "Cardano", Symbol: "ADAUSDT"},
	{ID: "dogecoin", Name: "Dogecoin", Symbol: "DOGEUSDT"},
}

// AvailableStrategies 是可供选择的策略目录，只读
var AvailableStrategies = []Strategy{
	{
		ID:          "mean_reversion",
		Name:        "Mean Reversion",
		Description: "Identifies assets deviating from their historical mean and bets on their return. Often uses Bollinger Bands and RSI.",
		Parameters:  map[string]float64{"rsiPeriod": 14, "bbPeriod": 20, "bbStdDev": 2},
	},
	{
		ID:          "trend_following",
		Name:        "Trend Following",
		Description: "Capitalizes on sustained price movements. Often uses moving average crossovers.",
		Parameters:  map[string]float64{"shortMAPeriod": 50, "longMAPeriod": 200},
	},
	{
		ID:          "arbitrage",
		Name:        "Arbitrage (Conceptual)",
		Description: "Exploits price differences of the same asset across different markets or related assets. (Conceptual for this simulation)",
	},
	{
		ID:          "ml_prediction",
		Name:        "Machine Learning Prediction (Conceptual)",
		Description: "Uses ML models (e.g., Random Forest, SVM) to predict returns or volatility. (Conceptual for this simulation)",
	},
	{
		ID:          "garch_volatility",
		Name:        "GARCH Volatility Trading (Conceptual)",
		Description: "Trades based on GARCH model predictions of volatility changes. (Conceptual for this simulation)",
	},
}

// AssetByID 在目录中查找资产，找不到时返回 false
func AssetByID(id string) (Asset, bool) {
	for _, a := range AvailableAssets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// StrategyByID 在目录中查找策略，找不到时返回 false
func StrategyByID(id string) (Strategy, bool) {
	for _, s := range AvailableStrategies {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}

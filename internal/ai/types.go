package ai

// Context carries the caller-supplied values substituted for template
// placeholders the model leaves in its output (e.g. "{currentPrice * 0.995}").
type Context struct {
	Symbol       string
	CurrentPrice float64
}

// Decision is the record ParseWithFallback returns: the model's trading call
// in its raw vocabulary (EXECUTE_TRADE, REJECT, HOLD), with trade parameters
// attached when the model supplied usable ones.
type Decision struct {
	Decision        string       `json:"decision"`
	Confidence      float64      `json:"confidence"` // 0-100
	Reasoning       string       `json:"reasoning"`
	TradeParams     *TradeParams `json:"tradeParams"`
	RiskFactors     []string     `json:"riskFactors,omitempty"`
	ChartAssessment string       `json:"chartAssessment,omitempty"`
}

type TradeParams struct {
	Direction    string  `json:"direction"` // BUY or SELL after normalization
	StopLoss     float64 `json:"stopLoss"`
	TakeProfit   float64 `json:"takeProfit"`
	PositionSize float64 `json:"positionSize"`
}

// TradingDecision is the canonical bounded record the order-placement layer
// consumes. Every field is guaranteed present and within range after
// ValidateTradingDecision.
type TradingDecision struct {
	Action                string  `json:"action"` // BUY, SELL, HOLD, CLOSE
	Confidence            float64 `json:"confidence"`
	PositionSize          float64 `json:"positionSize"`
	PositionSizeReasoning string  `json:"positionSizeReasoning"`
	StopLoss              float64 `json:"stopLoss"`
	StopLossReasoning     string  `json:"stopLossReasoning"`
	TakeProfit            float64 `json:"takeProfit"`
	TakeProfitReasoning   string  `json:"takeProfitReasoning"`
	Rationale             string  `json:"rationale"`
	RiskScore             int     `json:"riskScore"` // 1-5
	Timeframe             string  `json:"timeframe"`
	Urgency               string  `json:"urgency"` // LOW, MEDIUM, HIGH
	PortfolioImpact       string  `json:"portfolioImpact"`
}

// ChartAnalysis is the secondary record for chart-level model output,
// validated by the same clamp-and-default family.
type ChartAnalysis struct {
	Trend      string             `json:"trend"`
	Volatility float64            `json:"volatility"` // 0-100
	Momentum   float64            `json:"momentum"`   // -100..100
	Indicators []IndicatorReading `json:"indicators"`
	Patterns   []ChartPattern     `json:"patterns"`
}

type IndicatorReading struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Signal string  `json:"signal"` // BULLISH, BEARISH, NEUTRAL
}

type ChartPattern struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0-100
}

// StrategyAnalysis describes a strategy evaluation produced alongside a
// decision.
type StrategyAnalysis struct {
	Name            string   `json:"name"`
	Confidence      float64  `json:"confidence"` // 0-100
	EntryConditions []string `json:"entryConditions"`
	ExitConditions  []string `json:"exitConditions"`
}

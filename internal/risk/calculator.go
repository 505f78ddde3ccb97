package risk

import (
	"math"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PositionInfo is the result of a position-size calculation.
type PositionInfo struct {
	RiskAmount   float64 `json:"risk_amount"`
	PositionSize float64 `json:"position_size"`
	PipValue     float64 `json:"pip_value"`
	StopLossPips float64 `json:"stop_loss_pips"`
}

// Metrics reports the calculator's current risk state. Percentages are
// expressed as percent, not fractions.
type Metrics struct {
	Balance             float64 `json:"balance"`
	PreviousDayBalance  float64 `json:"previous_day_balance"`
	RiskPercentage      float64 `json:"risk_percentage"`
	DrawdownPercentage  float64 `json:"drawdown_percentage"`
	MaxDrawdownAmount   float64 `json:"max_drawdown_amount"`
	CurrentDrawdown     float64 `json:"current_drawdown"`
	DrawdownUsedPercent float64 `json:"drawdown_percentage_used"`
	TradesToday         int     `json:"trades_today"`
}

// TradeOutcome is the result of applying a closed trade to the account.
type TradeOutcome struct {
	EntryPrice    float64 `json:"entry_price"`
	ExitPrice     float64 `json:"exit_price"`
	PositionSize  float64 `json:"position_size"`
	PipDifference float64 `json:"pip_difference"`
	ProfitLoss    float64 `json:"profit_loss"`
	NewBalance    float64 `json:"new_balance"`
}

// defaultPipValue is the dollar value of one pip for one standard lot,
// which holds for most USD-quoted pairs.
const defaultPipValue = 10.0

// Calculator sizes positions against account balance and enforces a
// daily drawdown limit measured against the previous day's balance.
// Safe for concurrent use.
type Calculator struct {
	mu                 sync.Mutex
	balance            float64
	previousDayBalance float64
	riskFraction       float64
	drawdownFraction   float64
	maxDrawdownAmount  float64
	currentDrawdown    float64
	tradesToday        int
	logger             zerolog.Logger
}

// NewCalculator creates a calculator. riskPercentage and
// drawdownPercentage are in percent, e.g. 0.2 and 8.
func NewCalculator(startingBalance, riskPercentage, drawdownPercentage float64) *Calculator {
	c := &Calculator{
		balance:            startingBalance,
		previousDayBalance: startingBalance,
		riskFraction:       riskPercentage / 100,
		drawdownFraction:   drawdownPercentage / 100,
		logger:             log.With().Str("component", "risk_calculator").Logger(),
	}
	c.maxDrawdownAmount = c.previousDayBalance * c.drawdownFraction
	return c
}

// UpdateBalance records a new balance, accumulating drawdown when the
// balance drops, and returns the current drawdown.
func (c *Calculator) UpdateBalance(newBalance float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if newBalance < c.balance {
		c.currentDrawdown += c.balance - newBalance
	}
	c.balance = newBalance
	return c.currentDrawdown
}

// NewTradingDay rolls the drawdown window: the previous day's balance
// becomes the current one and the drawdown counters reset. Returns the
// new maximum drawdown amount.
func (c *Calculator) NewTradingDay() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.previousDayBalance = c.balance
	c.maxDrawdownAmount = c.previousDayBalance * c.drawdownFraction
	c.currentDrawdown = 0
	c.tradesToday = 0

	c.logger.Info().
		Float64("previous_day_balance", c.previousDayBalance).
		Float64("max_drawdown", c.maxDrawdownAmount).
		Msg("new trading day")

	return c.maxDrawdownAmount
}

// CalculatePositionSize sizes a trade so the stop-loss distance risks
// the configured fraction of the balance. pipValue is the dollar value
// of one pip for one standard lot; pass 0 to use the default.
// The position size is floored to 0.01 lot.
func (c *Calculator) CalculatePositionSize(entryPrice, stopLossPrice, pipValue float64) PositionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	riskAmount := c.balance * c.riskFraction

	var stopLossPips float64
	if entryPrice > stopLossPrice { // long
		stopLossPips = (entryPrice - stopLossPrice) * 10000
	} else { // short
		stopLossPips = (stopLossPrice - entryPrice) * 10000
	}

	if pipValue == 0 {
		pipValue = defaultPipValue
	}

	positionSize := riskAmount / (stopLossPips * pipValue)
	positionSize = math.Floor(positionSize*100) / 100

	return PositionInfo{
		RiskAmount:   riskAmount,
		PositionSize: positionSize,
		PipValue:     pipValue,
		StopLossPips: stopLossPips,
	}
}

// CanPlaceTrade reports whether the daily drawdown limit still allows a
// new trade, with a human-readable explanation.
func (c *Calculator) CanPlaceTrade() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentDrawdown >= c.maxDrawdownAmount {
		return false, "daily drawdown limit reached"
	}
	return true, "trade allowed within risk parameters"
}

// GetRiskMetrics returns a snapshot of the current risk state.
func (c *Calculator) GetRiskMetrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var used float64
	if c.maxDrawdownAmount > 0 {
		used = c.currentDrawdown / c.maxDrawdownAmount * 100
	}

	return Metrics{
		Balance:             c.balance,
		PreviousDayBalance:  c.previousDayBalance,
		RiskPercentage:      c.riskFraction * 100,
		DrawdownPercentage:  c.drawdownFraction * 100,
		MaxDrawdownAmount:   c.maxDrawdownAmount,
		CurrentDrawdown:     c.currentDrawdown,
		DrawdownUsedPercent: used,
		TradesToday:         c.tradesToday,
	}
}

// ApplyTradeOutcome settles a closed trade against the account: the
// profit or loss in dollars updates the balance and drawdown counters.
// pipValue of 0 uses the default.
func (c *Calculator) ApplyTradeOutcome(entryPrice, exitPrice, positionSize, pipValue float64) TradeOutcome {
	if pipValue == 0 {
		pipValue = defaultPipValue
	}

	var pipDifference float64
	if entryPrice < exitPrice { // long
		pipDifference = (exitPrice - entryPrice) * 10000
	} else { // short
		pipDifference = (entryPrice - exitPrice) * 10000
	}

	profitLoss := pipDifference * pipValue * positionSize

	c.mu.Lock()
	newBalance := c.balance + profitLoss
	if newBalance < c.balance {
		c.currentDrawdown += c.balance - newBalance
	}
	c.balance = newBalance
	c.tradesToday++
	c.mu.Unlock()

	return TradeOutcome{
		EntryPrice:    entryPrice,
		ExitPrice:     exitPrice,
		PositionSize:  positionSize,
		PipDifference: pipDifference,
		ProfitLoss:    profitLoss,
		NewBalance:    newBalance,
	}
}

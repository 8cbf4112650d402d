// Package risk sizes positions from account equity and a per-trade risk
// budget.
package risk

import (
	"fmt"
	"math"
)

type Inputs struct {
	Equity      float64
	Balance     float64
	RiskPercent float64 // e.g. 1.0 risks 1% of equity per trade
	EntryPrice  float64
	StopPrice   float64 // 0 means no stop; sizing falls back to margin fraction
	Leverage    float64
	FeePercent  float64
}

type Result struct {
	Size       float64
	Margin     float64
	RiskAmount float64
}

// Calculate returns the position size that risks RiskPercent of equity if
// the stop is hit. Without a stop, the risk budget is deployed as margin at
// the given leverage. The size is always capped so margin plus entry fee
// fits the available balance.
func Calculate(in Inputs) (Result, error) {
	if in.Equity <= 0 {
		return Result{}, fmt.Errorf("risk: equity must be positive, got %.2f", in.Equity)
	}
	if in.RiskPercent <= 0 {
		return Result{}, fmt.Errorf("risk: risk percent must be positive, got %.2f", in.RiskPercent)
	}
	if in.EntryPrice <= 0 {
		return Result{}, fmt.Errorf("risk: entry price must be positive, got %.2f", in.EntryPrice)
	}
	lev := in.Leverage
	if lev < 1 {
		lev = 1
	}

	riskAmt := in.Equity * in.RiskPercent / 100

	var size float64
	if in.StopPrice > 0 {
		dist := math.Abs(in.EntryPrice - in.StopPrice)
		if dist == 0 {
			return Result{}, fmt.Errorf("risk: stop price equals entry price %.2f", in.EntryPrice)
		}
		size = riskAmt / dist
	} else {
		// No stop: treat the risk budget as margin.
		size = riskAmt * lev / in.EntryPrice
	}

	// Cap so margin + entry fee never exceeds the available balance.
	if in.Balance > 0 {
		unitCost := in.EntryPrice * (1/lev + in.FeePercent/100)
		if maxSize := in.Balance / unitCost; size > maxSize {
			size = maxSize
		}
	}

	if size <= 0 {
		return Result{}, fmt.Errorf("risk: computed size is zero for entry %.2f", in.EntryPrice)
	}

	return Result{
		Size:       size,
		Margin:     size * in.EntryPrice / lev,
		RiskAmount: riskAmt,
	}, nil
}

// RewardRisk returns the reward-to-risk multiple of a planned trade.
func RewardRisk(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

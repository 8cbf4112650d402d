// Package sim implements the position lifecycle engine: a single-account
// simulator that opens, updates and closes leveraged positions against a
// stream of mark prices. The same UpdatePrice path drives both historical
// backtests and incremental paper trading, so results are comparable
// between the two modes.
package sim

import (
	"fmt"
	"time"

	"github.com/quantfold/tradesim/internal/id"
	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/risk"
	"github.com/quantfold/tradesim/tactics"
)

// sizeEpsilon treats remaining sizes below this as fully closed.
const sizeEpsilon = 1e-9

// Params configures one simulated account. InitialBalance is required;
// zero-valued limits fall back to documented defaults via Validate.
type Params struct {
	AccountID      string
	Currency       string
	Exchange       string
	InitialBalance float64

	MaxOpenPositions    int     // default 1
	MaxLeverage         float64 // default 1
	FeePercent          float64 // taker fee, percent of notional per fill
	SlippagePercent     float64 // applied to market fills
	MaxDrawdownPercent  float64 // 0 disables the breach event
	RiskPerTradePercent float64 // required for signal-driven entries

	Tactics []tactics.Set

	// SampleInterval rate-limits equity-curve points taken on plain price
	// updates. Position-affecting events always sample. Default 1s.
	SampleInterval time.Duration
}

// Validate checks required fields, applies defaults and validates the
// configured tactics sets. Advisory tactics warnings are returned.
func (p *Params) Validate() (warnings []string, err error) {
	if p.InitialBalance <= 0 {
		return nil, fmt.Errorf("params: initial balance must be positive, got %.2f", p.InitialBalance)
	}
	if p.MaxOpenPositions < 0 {
		return nil, fmt.Errorf("params: max open positions cannot be negative")
	}
	if p.MaxOpenPositions == 0 {
		p.MaxOpenPositions = 1
	}
	if p.MaxLeverage < 0 {
		return nil, fmt.Errorf("params: max leverage cannot be negative")
	}
	if p.MaxLeverage == 0 {
		p.MaxLeverage = 1
	}
	if p.FeePercent < 0 || p.SlippagePercent < 0 {
		return nil, fmt.Errorf("params: fee and slippage percents cannot be negative")
	}
	if p.MaxDrawdownPercent < 0 {
		return nil, fmt.Errorf("params: max drawdown percent cannot be negative")
	}
	if p.RiskPerTradePercent < 0 {
		return nil, fmt.Errorf("params: risk per trade percent cannot be negative")
	}
	if p.SampleInterval <= 0 {
		p.SampleInterval = time.Second
	}
	if p.AccountID == "" {
		p.AccountID = id.New()
	}
	if p.Currency == "" {
		p.Currency = "USDT"
	}

	for i := range p.Tactics {
		w, err := p.Tactics[i].Validate()
		if err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		warnings = append(warnings, w...)
	}
	return warnings, nil
}

// OpenRequest asks the engine to open one position.
type OpenRequest struct {
	Symbol   string
	Side     market.Side
	Size     float64
	Price    float64 // current mark price for market entries
	Time     time.Time
	Leverage float64 // default 1

	// LimitPrice > 0 creates a PENDING position filled when touched.
	LimitPrice float64

	// Explicit overrides. When zero/empty, levels resolve from Tactics.
	StopLoss float64
	Targets  []tactics.TakeProfitTarget

	// Tactics defaults to the first configured set.
	Tactics *tactics.Set
}

// Engine owns the lifecycle of one account and its positions. It performs
// no I/O: prices are pushed in, persistence and notification hang off the
// event channel. Not safe for concurrent use; drive it from one goroutine.
type Engine struct {
	params Params
	acct   *Account
	prices *market.TickStore
	subs   []Subscriber

	warnings   []string
	lastSample time.Time
	ddBreached bool

	day            time.Time
	dayStartEquity float64
}

// NewEngine builds an engine from validated params. Configuration errors
// are rejected here, never silently defaulted away.
func NewEngine(p Params) (*Engine, error) {
	warnings, err := p.Validate()
	if err != nil {
		return nil, err
	}

	acct := &Account{
		ID:             p.AccountID,
		Currency:       p.Currency,
		Exchange:       p.Exchange,
		InitialBalance: p.InitialBalance,
		Balance:        p.InitialBalance,
		Equity:         p.InitialBalance,
		MaxEquity:      p.InitialBalance,
		Status:         StatusIdle,
	}

	return &Engine{
		params:         p,
		acct:           acct,
		prices:         market.NewTickStore(),
		warnings:       warnings,
		dayStartEquity: p.InitialBalance,
	}, nil
}

// Account exposes the account state. Callers must treat it as read-only.
func (e *Engine) Account() *Account { return e.acct }

// Prices exposes the latest tick per symbol.
func (e *Engine) Prices() *market.TickStore { return e.prices }

// Warnings returns advisory configuration warnings collected at creation.
func (e *Engine) Warnings() []string { return e.warnings }

// Subscribe registers an event consumer. Delivery is synchronous and in
// subscription order.
func (e *Engine) Subscribe(fn Subscriber) {
	e.subs = append(e.subs, fn)
}

// Start marks the account running.
func (e *Engine) Start() { e.acct.Status = StatusRunning }

// Pause halts signal execution; price processing continues.
func (e *Engine) Pause() { e.acct.Status = StatusPaused }

// Stop halts signal execution and price processing. Open positions stay
// open until explicitly closed: pause, don't liquidate.
func (e *Engine) Stop() { e.acct.Status = StatusStopped }

// OpenPosition opens (or, with a limit price, pends) exactly one position.
// The account balance strictly decreases by margin plus entry fee, or the
// request is rejected with ErrInsufficientBalance and nothing mutates.
func (e *Engine) OpenPosition(req OpenRequest) (*Position, error) {
	if e.acct.Status == StatusStopped {
		return nil, ErrAccountStopped
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("open position: symbol is required")
	}
	if req.Side != market.Long && req.Side != market.Short {
		return nil, fmt.Errorf("open position: invalid side %d", req.Side)
	}
	if req.Size <= 0 {
		return nil, fmt.Errorf("open position: size must be positive, got %v", req.Size)
	}
	if req.Price <= 0 && req.LimitPrice <= 0 {
		return nil, fmt.Errorf("open position: price must be positive, got %v", req.Price)
	}

	if e.acct.OpenCount() >= e.params.MaxOpenPositions {
		return nil, ErrMaxOpenPositions
	}
	if e.acct.OpenPosition(req.Symbol) != nil {
		return nil, fmt.Errorf("open position %s: %w", req.Symbol, ErrDuplicatePosition)
	}

	lev := req.Leverage
	if lev == 0 {
		lev = 1
	}
	if lev < 1 || lev > e.params.MaxLeverage {
		return nil, fmt.Errorf("open position: leverage %.1f outside [1, %.1f]", lev, e.params.MaxLeverage)
	}

	set := req.Tactics
	if set == nil {
		set = e.selectTactics()
	}

	pending := req.LimitPrice > 0

	// Basis price: limit entries reserve margin at the limit price, market
	// entries fill at the marked price adjusted for slippage.
	basis := req.LimitPrice
	if !pending {
		basis = req.Price * (1 + req.Side.Sign()*e.params.SlippagePercent/100)
	}

	margin := req.Size * basis / lev
	fee := req.Size * basis * e.params.FeePercent / 100
	if margin+fee > e.acct.Balance {
		return nil, fmt.Errorf("open position %s: need %.2f, have %.2f: %w",
			req.Symbol, margin+fee, e.acct.Balance, ErrInsufficientBalance)
	}

	p := &Position{
		ID:       id.New(),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Leverage: lev,
		Margin:   margin,
		OpenTime: req.Time,
	}
	if set != nil {
		p.TacticsName = set.Name
		if set.Trailing != nil {
			// Snapshot: later edits to the named set must not alter this position.
			tr := *set.Trailing
			p.trailing = &tr
		}
	}

	e.resolveLevels(p, basis, req, set)
	p.LiquidationPrice = liquidationPrice(basis, lev, req.Side)

	if pending {
		p.Status = PositionPending
		p.LimitPrice = req.LimitPrice
		p.pendingSize = req.Size
		p.Fees = fee
	} else {
		p.Status = PositionOpen
		p.Entries = []Fill{{Price: basis, Size: req.Size, Fee: fee, Time: req.Time}}
		p.Size = req.Size
		p.OriginalSize = req.Size
		p.Fees = fee
		p.MarkPrice = basis
	}

	e.acct.Balance -= margin + fee
	e.acct.Positions = append(e.acct.Positions, p)

	e.publish(Event{Type: EventPositionOpened, Time: req.Time, Payload: PositionEvent{Position: p}})
	e.publish(Event{Type: EventBalanceUpdate, Time: req.Time, Payload: BalanceEvent{Balance: e.acct.Balance, Equity: e.acct.Equity}})

	e.recalc(req.Time)
	e.sample(req.Time, true)
	return p, nil
}

// resolveLevels applies the stop/target precedence: explicit absolute
// values in the request win, then the tactics set, then nothing.
func (e *Engine) resolveLevels(p *Position, basis float64, req OpenRequest, set *tactics.Set) {
	var lv tactics.Levels
	if set != nil {
		lv = set.Resolve(basis, req.Side)
	}

	if req.StopLoss > 0 {
		p.StopLoss = req.StopLoss
	} else {
		p.StopLoss = lv.StopLoss
	}

	if len(req.Targets) > 0 {
		override := tactics.Set{Name: "override", Entry: tactics.EntryMarket, Targets: req.Targets}
		lv = override.Resolve(basis, req.Side)
	}
	for _, t := range lv.Targets {
		p.Targets = append(p.Targets, Target{Price: t.Price, ClosePercent: t.ClosePercent})
	}
}

// liquidationPrice is the adverse price at which the position's margin is
// fully consumed: price * (1 -/+ 1/leverage). Zero means unreachable.
func liquidationPrice(entry, leverage float64, side market.Side) float64 {
	return entry * (1 - side.Sign()/leverage)
}

// UpdatePrice processes one mark price for one symbol. Per open position
// the checks run in a fixed order so same-tick triggers are unambiguous:
// liquidation, then stop-loss, then take-profit targets in configured
// order, then the trailing-stop update. Liquidation and stop-loss close
// the whole position and end processing for that position this tick.
func (e *Engine) UpdatePrice(symbol string, price float64, ts time.Time) error {
	if e.acct.Status == StatusStopped {
		return nil
	}
	if price <= 0 {
		return fmt.Errorf("update price %s: price must be positive, got %v", symbol, price)
	}

	e.prices.Set(market.Tick{Symbol: symbol, Price: price, Time: ts})
	e.rollDay(ts)

	closedAny := false
	for _, p := range e.acct.Positions {
		if p.Symbol != symbol {
			continue
		}

		if p.IsPending() {
			if limitTouched(p, price) {
				e.fillPending(p, ts)
				closedAny = true // force an equity sample on the fill
			}
			continue
		}
		if !p.IsOpen() {
			continue
		}

		p.MarkPrice = price
		p.UnrealizedPnL = p.unrealized(price)

		// Liquidation overrides any stop or target on the same tick.
		if p.liquidated(price) {
			e.closePosition(p, p.LiquidationPrice, ts, ReasonLiquidation)
			closedAny = true
			continue
		}

		if p.stopHit(price) {
			reason := ReasonStopLoss
			if p.trailSet {
				reason = ReasonTrailingStop
			}
			// Close at the configured stop price, not the tick price.
			e.closePosition(p, p.StopLoss, ts, reason)
			closedAny = true
			continue
		}

		for i := range p.Targets {
			if p.Targets[i].Filled || !targetHit(p.Side, price, p.Targets[i].Price) {
				continue
			}
			e.fillTarget(p, i, ts)
			if p.IsTerminal() {
				closedAny = true
				break
			}
		}
		if p.IsTerminal() {
			continue
		}

		p.updateTrailing(price)
	}

	if closedAny {
		e.compactPositions()
	}

	e.recalc(ts)
	e.sample(ts, closedAny)
	return nil
}

func limitTouched(p *Position, price float64) bool {
	if p.Side == market.Long {
		return atOrBelow(price, p.LimitPrice)
	}
	return atOrAbove(price, p.LimitPrice)
}

// fillPending promotes a PENDING position to OPEN at its limit price.
func (e *Engine) fillPending(p *Position, ts time.Time) {
	p.Status = PositionOpen
	p.Entries = []Fill{{Price: p.LimitPrice, Size: p.pendingSize, Fee: p.Fees, Time: ts}}
	p.Size = p.pendingSize
	p.OriginalSize = p.pendingSize
	p.MarkPrice = p.LimitPrice
	p.pendingSize = 0

	e.publish(Event{Type: EventPositionUpdated, Time: ts, Payload: PositionEvent{Position: p}})
}

// fillTarget partially closes closePercent of the original size at the
// target price. Reaching zero remaining size fully closes the position.
func (e *Engine) fillTarget(p *Position, idx int, ts time.Time) {
	tgt := &p.Targets[idx]

	slice := tgt.ClosePercent / 100 * p.OriginalSize
	if slice > p.Size {
		slice = p.Size
	}

	pnl := p.Side.Sign() * (tgt.Price - p.AvgEntryPrice()) * slice
	fee := slice * tgt.Price * e.params.FeePercent / 100
	marginShare := p.Margin * slice / p.Size

	p.Size -= slice
	p.Margin -= marginShare
	p.Fees += fee
	p.RealizedPnL += pnl
	p.Exits = append(p.Exits, ExitFill{
		Price: tgt.Price, Size: slice, Fee: fee, PnL: pnl, Time: ts, Reason: ReasonTakeProfit,
	})
	tgt.Filled = true
	tgt.FilledAt = ts

	e.acct.Balance += marginShare + pnl - fee

	if p.Size <= sizeEpsilon {
		// Residual margin from float error goes back to the wallet.
		e.acct.Balance += p.Margin
		p.Margin = 0
		p.Size = 0
		e.finalize(p, ts, ReasonTakeProfit)
		return
	}

	p.UnrealizedPnL = p.unrealized(p.MarkPrice)
	e.publish(Event{Type: EventPositionUpdated, Time: ts, Payload: PositionEvent{Position: p}})
	e.publish(Event{Type: EventBalanceUpdate, Time: ts, Payload: BalanceEvent{Balance: e.acct.Balance, Equity: e.acct.Equity}})
}

// closePosition closes the full remaining size at the given price and
// refunds margin plus net PnL to the account balance.
func (e *Engine) closePosition(p *Position, price float64, ts time.Time, reason CloseReason) {
	p.Status = PositionClosing

	pnl := p.Side.Sign() * (price - p.AvgEntryPrice()) * p.Size
	fee := p.Size * price * e.params.FeePercent / 100

	p.Exits = append(p.Exits, ExitFill{
		Price: price, Size: p.Size, Fee: fee, PnL: pnl, Time: ts, Reason: reason,
	})
	p.RealizedPnL += pnl
	p.Fees += fee

	e.acct.Balance += p.Margin + pnl - fee
	p.Margin = 0
	p.Size = 0

	e.finalize(p, ts, reason)
}

// finalize stamps the terminal state and materializes the immutable Trade.
func (e *Engine) finalize(p *Position, ts time.Time, reason CloseReason) {
	if reason == ReasonLiquidation {
		p.Status = PositionLiquidated
	} else {
		p.Status = PositionClosed
	}
	p.UnrealizedPnL = 0
	p.CloseTime = ts
	p.CloseReason = reason

	trade := Trade{
		ID:         id.New(),
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Side:       p.Side,
		Size:       p.OriginalSize,
		AvgEntry:   p.AvgEntryPrice(),
		AvgExit:    p.AvgExitPrice(),
		PnL:        p.RealizedPnL,
		Fees:       p.Fees,
		NetPnL:     p.RealizedPnL - p.Fees,
		OpenTime:   p.OpenTime,
		CloseTime:  ts,
		Duration:   ts.Sub(p.OpenTime),
		Reason:     reason,
		Tactics:    p.TacticsName,
	}
	e.acct.History = append(e.acct.History, trade)
	if trade.NetPnL > 0 {
		e.acct.Wins++
	} else {
		e.acct.Losses++
	}

	e.publish(Event{Type: EventPositionClosed, Time: ts, Payload: TradeEvent{Position: p, Trade: trade}})
	e.publish(Event{Type: EventBalanceUpdate, Time: ts, Payload: BalanceEvent{Balance: e.acct.Balance, Equity: e.acct.Equity}})
}

// compactPositions drops terminal positions from the open collection.
func (e *Engine) compactPositions() {
	open := e.acct.Positions[:0]
	for _, p := range e.acct.Positions {
		if !p.IsTerminal() {
			open = append(open, p)
		}
	}
	e.acct.Positions = open
}

// ClosePosition closes one position by id at the given price. Market-style
// reasons (SIGNAL, MANUAL, MAX_DRAWDOWN) pay slippage; level-based closes
// happen inside UpdatePrice at their configured prices.
func (e *Engine) ClosePosition(positionID string, price float64, ts time.Time, reason CloseReason) error {
	for _, p := range e.acct.Positions {
		if p.ID != positionID {
			continue
		}
		return e.closeRequested(p, price, ts, reason)
	}
	return fmt.Errorf("close position %s: %w", positionID, ErrPositionNotFound)
}

// CloseBySymbol closes the open position for a symbol, if any.
func (e *Engine) CloseBySymbol(symbol string, price float64, ts time.Time, reason CloseReason) error {
	p := e.acct.OpenPosition(symbol)
	if p == nil {
		return fmt.Errorf("close %s: %w", symbol, ErrPositionNotFound)
	}
	return e.closeRequested(p, price, ts, reason)
}

func (e *Engine) closeRequested(p *Position, price float64, ts time.Time, reason CloseReason) error {
	if p.IsTerminal() {
		return fmt.Errorf("close position %s: %w", p.ID, ErrPositionTerminal)
	}
	if reason == "" {
		reason = ReasonManual
	}

	if p.IsPending() {
		e.cancelPending(p, ts)
		e.compactPositions()
		e.recalc(ts)
		e.sample(ts, true)
		return nil
	}

	if price <= 0 {
		return fmt.Errorf("close position %s: price must be positive, got %v", p.ID, price)
	}

	// Closing a long sells into the market, a short buys back.
	fillPrice := price * (1 - p.Side.Sign()*e.params.SlippagePercent/100)
	e.closePosition(p, fillPrice, ts, reason)
	e.compactPositions()
	e.recalc(ts)
	e.sample(ts, true)
	return nil
}

// cancelPending refunds the reserved margin and fee; no trade materializes.
func (e *Engine) cancelPending(p *Position, ts time.Time) {
	e.acct.Balance += p.Margin + p.Fees
	p.Margin = 0
	p.Fees = 0
	p.pendingSize = 0
	p.Status = PositionClosed
	p.CloseTime = ts
	p.CloseReason = ReasonManual

	e.publish(Event{Type: EventPositionClosed, Time: ts, Payload: PositionEvent{Position: p}})
	e.publish(Event{Type: EventBalanceUpdate, Time: ts, Payload: BalanceEvent{Balance: e.acct.Balance, Equity: e.acct.Equity}})
}

// ExecuteEntry opens a position from a strategy signal: sizing from the
// per-trade risk budget, levels from the selected tactics set. At most one
// concurrent position per symbol, bounded by the account's maximum.
func (e *Engine) ExecuteEntry(symbol string, side market.Side, price float64, ts time.Time) (*Position, error) {
	switch e.acct.Status {
	case StatusStopped:
		return nil, ErrAccountStopped
	case StatusPaused:
		return nil, ErrAccountPaused
	}
	if e.params.RiskPerTradePercent <= 0 {
		return nil, fmt.Errorf("execute entry: risk per trade percent is not configured")
	}
	if e.acct.OpenCount() >= e.params.MaxOpenPositions {
		return nil, ErrMaxOpenPositions
	}
	if e.acct.OpenPosition(symbol) != nil {
		return nil, fmt.Errorf("execute entry %s: %w", symbol, ErrDuplicatePosition)
	}

	set := e.selectTactics()
	var stop float64
	if set != nil {
		stop = set.Resolve(price, side).StopLoss
	}

	sized, err := risk.Calculate(risk.Inputs{
		Equity:      e.acct.Equity,
		Balance:     e.acct.Balance,
		RiskPercent: e.params.RiskPerTradePercent,
		EntryPrice:  price,
		StopPrice:   stop,
		Leverage:    e.params.MaxLeverage,
		FeePercent:  e.params.FeePercent,
	})
	if err != nil {
		return nil, fmt.Errorf("execute entry %s: %w", symbol, err)
	}

	return e.OpenPosition(OpenRequest{
		Symbol:   symbol,
		Side:     side,
		Size:     sized.Size,
		Price:    price,
		Time:     ts,
		Leverage: e.params.MaxLeverage,
		Tactics:  set,
	})
}

// selectTactics picks the tactics set for a new signal. The original
// behavior is preserved: the first configured set is always selected.
func (e *Engine) selectTactics() *tactics.Set {
	if len(e.params.Tactics) == 0 {
		return nil
	}
	return &e.params.Tactics[0]
}

// ReportSignal publishes a SIGNAL_GENERATED event on behalf of a driver.
func (e *Engine) ReportSignal(ts time.Time, sig SignalEvent) {
	e.publish(Event{Type: EventSignalGenerated, Time: ts, Payload: sig})
}

// ReportError publishes an ERROR event on behalf of a driver. Recoverable
// per-tick failures surface here instead of aborting the batch.
func (e *Engine) ReportError(ts time.Time, context string, err error) {
	e.publish(Event{Type: EventError, Time: ts, Payload: ErrorEvent{Context: context, Err: err.Error()}})
}

// recalc refreshes equity, the high-water mark and drawdown stats, and
// emits MAX_DRAWDOWN_REACHED when the configured threshold is crossed.
func (e *Engine) recalc(ts time.Time) {
	e.acct.Equity = e.acct.Balance + e.acct.UsedMargin() + e.acct.UnrealizedPnL()
	if e.acct.Equity > e.acct.MaxEquity {
		e.acct.MaxEquity = e.acct.Equity
	}

	dd := e.acct.MaxEquity - e.acct.Equity
	ddPct := 0.0
	if e.acct.MaxEquity > 0 {
		ddPct = dd / e.acct.MaxEquity * 100
	}
	if dd > e.acct.MaxDrawdown {
		e.acct.MaxDrawdown = dd
	}
	if ddPct > e.acct.MaxDrawdownPct {
		e.acct.MaxDrawdownPct = ddPct
	}

	if e.params.MaxDrawdownPercent > 0 {
		if ddPct >= e.params.MaxDrawdownPercent {
			if !e.ddBreached {
				e.ddBreached = true
				// Breach is reported, not enforced: the controller decides policy.
				e.publish(Event{Type: EventMaxDrawdown, Time: ts, Payload: DrawdownEvent{
					Drawdown: dd, DrawdownPct: ddPct, Threshold: e.params.MaxDrawdownPercent,
				}})
			}
		} else {
			e.ddBreached = false
		}
	}
}

// rollDay resets the daily PnL anchor when the UTC date changes.
func (e *Engine) rollDay(ts time.Time) {
	day := ts.UTC().Truncate(24 * time.Hour)
	if e.day.IsZero() {
		e.day = day
		return
	}
	if day.After(e.day) {
		e.day = day
		e.dayStartEquity = e.acct.Equity
	}
}

// sample appends an equity point. Plain price updates are rate-limited to
// one per SampleInterval; position-affecting events always sample.
func (e *Engine) sample(ts time.Time, force bool) {
	if !force && !e.lastSample.IsZero() && ts.Sub(e.lastSample) < e.params.SampleInterval {
		return
	}
	e.lastSample = ts

	e.acct.EquityCurve = append(e.acct.EquityCurve, EquityPoint{
		Time:           ts,
		Balance:        e.acct.Balance,
		Equity:         e.acct.Equity,
		UnrealizedPnL:  e.acct.UnrealizedPnL(),
		RealizedPnL:    e.acct.RealizedPnL(),
		DailyPnL:       e.acct.Equity - e.dayStartEquity,
		CumulativePnL:  e.acct.Equity - e.acct.InitialBalance,
		Drawdown:       e.acct.MaxEquity - e.acct.Equity,
		DrawdownPct:    drawdownPct(e.acct.MaxEquity, e.acct.Equity),
		MaxDrawdown:    e.acct.MaxDrawdown,
		MaxDrawdownPct: e.acct.MaxDrawdownPct,
		OpenPositions:  e.acct.OpenCount(),
		Trades:         len(e.acct.History),
		Wins:           e.acct.Wins,
		Losses:         e.acct.Losses,
		Prices:         e.prices.Snapshot(),
	})
}

func drawdownPct(peak, equity float64) float64 {
	if peak <= 0 {
		return 0
	}
	return (peak - equity) / peak * 100
}

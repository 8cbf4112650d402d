package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	dataset TEXT NOT NULL,
	strategy TEXT NOT NULL,
	params BLOB,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	initial_balance REAL NOT NULL,
	final_equity REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	net_pnl REAL NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL NOT NULL,
	avg_entry REAL NOT NULL,
	avg_exit REAL NOT NULL,
	pnl REAL NOT NULL,
	fees REAL NOT NULL,
	net_pnl REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	reason TEXT NOT NULL,
	tactics TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	unrealized_pnl REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	drawdown_pct REAL NOT NULL,
	open_positions INTEGER NOT NULL,
	trades INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`

// SQLiteJournal persists one run's records into a SQLite database. The
// same database file can accumulate many runs; rows are keyed by run id.
type SQLiteJournal struct {
	db    *sql.DB
	runID string
}

func NewSQLite(path, runID string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db, runID: runID}, nil
}

func (j *SQLiteJournal) RecordTrade(t sim.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, side, size, avg_entry, avg_exit, pnl, fees, net_pnl, open_time, close_time, reason, tactics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, j.runID, t.Symbol, t.Side.String(), t.Size, t.AvgEntry, t.AvgExit,
		t.PnL, t.Fees, t.NetPnL, t.OpenTime, t.CloseTime, string(t.Reason), t.Tactics,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e sim.EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, balance, equity, unrealized_pnl, realized_pnl, drawdown_pct, open_positions, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, e.Time, e.Balance, e.Equity, e.UnrealizedPnL, e.RealizedPnL,
		e.DrawdownPct, e.OpenPositions, e.Trades,
	)
	return err
}

// RecordRun stores (or replaces) the summary row for this run.
func (j *SQLiteJournal) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, symbol, timeframe, dataset, strategy, params, start_time, end_time,
		 initial_balance, final_equity, trades, wins, losses,
		 net_pnl, return_pct, win_rate, profit_factor, sharpe_ratio, max_drawdown_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Symbol, r.Timeframe, r.Dataset, r.Strategy, r.Params,
		r.Start, r.End, r.InitialBalance, r.FinalEquity, r.Trades, r.Wins, r.Losses,
		r.NetPnL, r.ReturnPct, r.WinRate, r.ProfitFactor, r.SharpeRatio, r.MaxDrawdownPct,
	)
	return err
}

// GetRun loads one run summary by id.
func (j *SQLiteJournal) GetRun(runID string) (Run, error) {
	var r Run
	row := j.db.QueryRow(`
		SELECT run_id, created, symbol, timeframe, dataset, strategy, params, start_time, end_time,
		       initial_balance, final_equity, trades, wins, losses,
		       net_pnl, return_pct, win_rate, profit_factor, sharpe_ratio, max_drawdown_pct
		FROM runs WHERE run_id = ?`, runID)

	err := row.Scan(
		&r.RunID, &r.Created, &r.Symbol, &r.Timeframe, &r.Dataset, &r.Strategy, &r.Params,
		&r.Start, &r.End, &r.InitialBalance, &r.FinalEquity, &r.Trades, &r.Wins, &r.Losses,
		&r.NetPnL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor, &r.SharpeRatio, &r.MaxDrawdownPct,
	)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %q not found", runID)
	}
	return r, err
}

// ListTrades returns the trades of a run ordered by close time.
func (j *SQLiteJournal) ListTrades(runID string) ([]sim.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, size, avg_entry, avg_exit, pnl, fees, net_pnl, open_time, close_time, reason, tactics
		FROM trades
		WHERE run_id = ?
		ORDER BY close_time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Trade
	for rows.Next() {
		var t sim.Trade
		var side, reason string
		if err := rows.Scan(
			&t.ID, &t.Symbol, &side, &t.Size, &t.AvgEntry, &t.AvgExit,
			&t.PnL, &t.Fees, &t.NetPnL, &t.OpenTime, &t.CloseTime, &reason, &t.Tactics,
		); err != nil {
			return nil, err
		}
		t.Side = sideFromString(side)
		t.Reason = sim.CloseReason(reason)
		t.Duration = t.CloseTime.Sub(t.OpenTime)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns the equity curve of a run in time order.
func (j *SQLiteJournal) ListEquity(runID string) ([]sim.EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, equity, unrealized_pnl, realized_pnl, drawdown_pct, open_positions, trades
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.EquityPoint
	for rows.Next() {
		var e sim.EquityPoint
		if err := rows.Scan(
			&e.Time, &e.Balance, &e.Equity, &e.UnrealizedPnL, &e.RealizedPnL,
			&e.DrawdownPct, &e.OpenPositions, &e.Trades,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func sideFromString(s string) market.Side {
	if s == "short" {
		return market.Short
	}
	return market.Long
}

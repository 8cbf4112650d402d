package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/quantfold/tradesim/sim"
)

// CSVJournal appends trades and equity samples to two CSV files. Rows are
// flushed per record so a crashed run still leaves usable output.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{
		"trade_id", "symbol", "side", "size", "avg_entry", "avg_exit",
		"pnl", "fees", "net_pnl", "open_time", "close_time", "reason", "tactics",
	}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{
		"time", "balance", "equity", "unrealized_pnl", "realized_pnl",
		"drawdown_pct", "open_positions", "trades",
	}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func (j *CSVJournal) RecordTrade(t sim.Trade) error {
	if err := j.trades.Write([]string{
		t.ID,
		t.Symbol,
		t.Side.String(),
		f(t.Size),
		f(t.AvgEntry),
		f(t.AvgExit),
		f(t.PnL),
		f(t.Fees),
		f(t.NetPnL),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		string(t.Reason),
		t.Tactics,
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e sim.EquityPoint) error {
	if err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
		f(e.UnrealizedPnL),
		f(e.RealizedPnL),
		f(e.DrawdownPct),
		strconv.Itoa(e.OpenPositions),
		strconv.Itoa(e.Trades),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, entry_time, close_time, entry_price, exit_price,
		 position_size, pnl_usdt, pnl_percent, fees_total, slippage_total,
		 duration_bars, pump_percent, mfe, mae, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.EntryTime, t.CloseTime, t.EntryPrice, t.ExitPrice,
		t.PositionSize, t.PnLUSDT, t.PnLPercent, t.FeesTotal, t.SlippageTotal,
		t.DurationBars, t.PumpPercent, t.MFE, t.MAE, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, idx, equity, cash, open_positions_value, open_positions_count, drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.Idx, e.Equity, e.Cash, e.OpenPositionsValue, e.OpenPositionsCount, e.Drawdown,
	)
	return err
}

// RecordRun stores the run summary. Run records are SQLite-only; the CSV
// journal carries trades and equity files without run metadata.
func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, started, finished, initial_capital, final_capital, trades, wins, losses, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Started, r.Finished, r.InitialCapital, r.FinalCapital,
		r.Trades, r.Wins, r.Losses, r.MaxDrawdown,
	)
	return err
}

// GetRun loads one run summary by id.
func (j *SQLiteJournal) GetRun(runID string) (RunRecord, error) {
	var r RunRecord
	err := j.db.QueryRow(`
		SELECT run_id, started, finished, initial_capital, final_capital, trades, wins, losses, max_drawdown
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Started, &r.Finished, &r.InitialCapital, &r.FinalCapital,
		&r.Trades, &r.Wins, &r.Losses, &r.MaxDrawdown,
	)
	return r, err
}

// ListTradesBySymbol returns the symbol's closed trades ordered by close time.
func (j *SQLiteJournal) ListTradesBySymbol(symbol string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, entry_time, close_time, entry_price, exit_price,
		       position_size, pnl_usdt, pnl_percent, fees_total, slippage_total,
		       duration_bars, pump_percent, mfe, mae, reason
		FROM trades WHERE symbol = ? ORDER BY close_time`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListTradesClosedBetween returns trades with close_time in [from, to).
func (j *SQLiteJournal) ListTradesClosedBetween(from, to time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, entry_time, close_time, entry_price, exit_price,
		       position_size, pnl_usdt, pnl_percent, fees_total, slippage_total,
		       duration_bars, pump_percent, mfe, mae, reason
		FROM trades WHERE close_time >= ? AND close_time < ? ORDER BY close_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID, &t.Symbol, &t.EntryTime, &t.CloseTime, &t.EntryPrice, &t.ExitPrice,
			&t.PositionSize, &t.PnLUSDT, &t.PnLPercent, &t.FeesTotal, &t.SlippageTotal,
			&t.DurationBars, &t.PumpPercent, &t.MFE, &t.MAE, &t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

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
		"trade_id", "symbol", "entry_time", "close_time", "entry_price", "exit_price",
		"position_size", "pnl_usdt", "pnl_percent", "fees_total", "slippage_total",
		"duration_bars", "pump_percent", "mfe", "mae", "reason",
	}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{
		"time", "idx", "equity", "cash", "open_positions_value", "open_positions_count", "drawdown",
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

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		t.EntryTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.PositionSize),
		f(t.PnLUSDT),
		f(t.PnLPercent),
		f(t.FeesTotal),
		f(t.SlippageTotal),
		strconv.Itoa(t.DurationBars),
		f(t.PumpPercent),
		f(t.MFE),
		f(t.MAE),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		strconv.Itoa(e.Idx),
		f(e.Equity),
		f(e.Cash),
		f(e.OpenPositionsValue),
		strconv.Itoa(e.OpenPositionsCount),
		f(e.Drawdown),
	})
	if err != nil {
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

// Package journal persists completed runs: closed trades and the equity
// curve, to CSV files or a SQLite database.
package journal

import (
	"time"

	"pumpfade/portfolio"
	"pumpfade/sim"
)

// TradeRecord is the persisted form of one closed trade.
type TradeRecord struct {
	TradeID       string
	Symbol        string
	EntryTime     time.Time
	CloseTime     time.Time
	EntryPrice    float64
	ExitPrice     float64
	PositionSize  float64
	PnLUSDT       float64
	PnLPercent    float64
	FeesTotal     float64
	SlippageTotal float64
	DurationBars  int
	PumpPercent   float64
	MFE           float64
	MAE           float64
	Reason        string
}

// EquityRecord is one persisted equity-curve point.
type EquityRecord struct {
	Time               time.Time
	Idx                int
	Equity             float64
	Cash               float64
	OpenPositionsValue float64
	OpenPositionsCount int
	Drawdown           float64
}

// RunRecord summarizes one completed backtest run.
type RunRecord struct {
	RunID          string
	Started        time.Time
	Finished       time.Time
	InitialCapital float64
	FinalCapital   float64
	Trades         int
	Wins           int
	Losses         int
	MaxDrawdown    float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// FromTrade converts a closed trade to its persisted form.
func FromTrade(t *sim.Trade) TradeRecord {
	return TradeRecord{
		TradeID:       t.ID,
		Symbol:        t.Symbol,
		EntryTime:     t.EntryTime,
		CloseTime:     t.ExitTime,
		EntryPrice:    t.EntryPrice,
		ExitPrice:     t.ExitPrice,
		PositionSize:  t.PositionSize,
		PnLUSDT:       t.PnLUSDT,
		PnLPercent:    t.PnLPercent,
		FeesTotal:     t.FeesTotal,
		SlippageTotal: t.SlippageTotal,
		DurationBars:  t.DurationBars,
		PumpPercent:   t.PumpPercent,
		MFE:           t.MFE,
		MAE:           t.MAE,
		Reason:        t.ExitReason,
	}
}

// FromSnapshot converts an equity snapshot to its persisted form.
func FromSnapshot(s portfolio.Snapshot) EquityRecord {
	return EquityRecord{
		Time:               s.Time,
		Idx:                s.Idx,
		Equity:             s.Equity,
		Cash:               s.Cash,
		OpenPositionsValue: s.OpenPositionsValue,
		OpenPositionsCount: s.OpenPositionsCount,
		Drawdown:           s.Drawdown,
	}
}

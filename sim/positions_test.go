package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfade/market"
	"pumpfade/risk"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func bar(high, low, close float64) market.Candle {
	return market.Candle{High: high, Low: low, Close: close, Open: close, Volume: 1000}
}

func series(symbol string, candles ...market.Candle) *market.Series {
	s := &market.Series{Symbol: symbol}
	for i, c := range candles {
		c.Time = testStart.Add(time.Duration(i) * 15 * time.Minute)
		s.Candles = append(s.Candles, c)
	}
	return s
}

func pending(symbol string, entryIdx int, entry, tp, sl float64) *Trade {
	return &Trade{
		Symbol:        symbol,
		ID:            symbol + "_t",
		EntryTime:     testStart.Add(time.Duration(entryIdx) * 15 * time.Minute),
		EntryIdx:      entryIdx,
		EntryPrice:    entry,
		SlippageEntry: 0.001,
		LocalHigh:     130,
		PumpPercent:   30,
		TPPrice:       tp,
		SLPrice:       sl,
	}
}

func newPM(t *testing.T, slippage float64) (*PositionManager, *risk.Manager) {
	t.Helper()
	rm := risk.NewManager(1000)
	pm := NewPositionManager(Costs{TakerFee: 0.0006, Slippage: slippage}, 20, rm, nil)
	return pm, rm
}

func TestOpenImmediateTakeProfit(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(100, 77, 100), // low 77 <= tp 78 on the entry bar
	)

	tr := pending("A", 1, 100, 78, 200)
	resident, closed := pm.Open(tr, s, 1)

	assert.False(t, resident)
	require.NotNil(t, closed)
	assert.True(t, closed.Closed)
	assert.Equal(t, ReasonTakeProfit, closed.ExitReason)
	assert.InDelta(t, 78*(1.001), closed.ExitPrice, 1e-9)
	assert.Equal(t, 0, pm.OpenCount(), "immediate fills never become resident")
}

func TestOpenImmediateStopBeatsTake(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(210, 70, 100), // both levels breached in the entry candle
	)

	tr := pending("A", 1, 100, 78, 200)
	resident, closed := pm.Open(tr, s, 1)

	assert.False(t, resident)
	require.NotNil(t, closed)
	assert.Equal(t, ReasonStopLoss, closed.ExitReason, "SL is checked before TP")
	assert.InDelta(t, 200*(1.001), closed.ExitPrice, 1e-9)
}

func TestOpenResident(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(110, 90, 100),
	)

	tr := pending("A", 1, 100, 78, 200)
	resident, closed := pm.Open(tr, s, 1)

	assert.True(t, resident)
	assert.Nil(t, closed)
	assert.True(t, pm.HasPosition("A"))
	assert.Equal(t, 1, pm.OpenCount())
	assert.InDelta(t, 10.0, tr.PositionSize, 1e-9, "unseen symbol sizes at half the base")
	assert.InDelta(t, 10.0*0.0006, tr.EntryFee, 1e-12)
}

func TestCheckBarStopBeforeTake(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(110, 90, 100),
		bar(210, 70, 100), // both trigger; SL wins
	)

	tr := pending("A", 1, 100, 78, 200)
	resident, _ := pm.Open(tr, s, 1)
	require.True(t, resident)

	closed := pm.CheckBar(s, 2)
	require.Len(t, closed, 1)
	assert.Equal(t, ReasonStopLoss, closed[0].ExitReason)
	assert.Equal(t, 0, pm.OpenCount())
}

func TestCheckBarTakeProfit(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(110, 90, 100),
		bar(105, 77, 90),
	)

	tr := pending("A", 1, 100, 78, 200)
	resident, _ := pm.Open(tr, s, 1)
	require.True(t, resident)

	assert.Empty(t, pm.CheckBar(s, 1), "entry bar was already checked by Open")

	closed := pm.CheckBar(s, 2)
	require.Len(t, closed, 1)
	assert.Equal(t, ReasonTakeProfit, closed[0].ExitReason)
	assert.InDelta(t, 78*(1.001), closed[0].ExitPrice, 1e-9)
	assert.Equal(t, 2, closed[0].ExitIdx)
	assert.Equal(t, 1, closed[0].DurationBars)
}

func TestForceCloseAllEndOfData(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(110, 90, 100),
		bar(105, 90, 96),
	)

	tr := pending("A", 1, 100, 78, 200)
	resident, _ := pm.Open(tr, s, 1)
	require.True(t, resident)

	closed := pm.ForceCloseAll(s, 2)
	require.Len(t, closed, 1)
	assert.Equal(t, ReasonEndOfData, closed[0].ExitReason)
	assert.InDelta(t, 96*(1.001), closed[0].ExitPrice, 1e-9)
	assert.Equal(t, 0, pm.OpenCount(), "no symbol may end a run with an open position")
}

// TestClosePnLFormula pins the realized-PnL computation, including the
// slippage_total term: the sum of the entry and exit slippage *rates* is
// subtracted from PnL as if it were a currency amount. Historical runs were
// produced with that unit mix and it must not change silently.
func TestClosePnLFormula(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(110, 90, 100),
		bar(105, 79, 100), // tp 80 hit
	)

	tr := pending("A", 1, 100, 80, 200)
	resident, _ := pm.Open(tr, s, 1)
	require.True(t, resident)

	closed := pm.CheckBar(s, 2)
	require.Len(t, closed, 1)
	got := closed[0]

	// size = 20 * 0.5 = 10, exit = 80*1.001 = 80.08
	// fees_total = 10 * 0.0006 * 2 = 0.012
	// slippage_total = 0.001 + 0.001 = 0.002 (rates, kept as-is)
	// pnl = (100-80.08)/100*10 - 0.012 - 0.002 = 1.978
	assert.InDelta(t, 0.012, got.FeesTotal, 1e-12)
	assert.InDelta(t, 0.002, got.SlippageTotal, 1e-12)
	assert.InDelta(t, 1.978, got.PnLUSDT, 1e-9)
	assert.InDelta(t, 19.78, got.PnLPercent, 1e-9)
}

func TestCloseComputesExcursions(t *testing.T) {
	t.Parallel()

	pm, _ := newPM(t, 0)
	s := series("A",
		bar(100, 95, 100),
		bar(110, 90, 100), // entry bar
		bar(120, 70, 100), // deepest low 70, highest high 120
		bar(105, 90, 96),
	)

	tr := pending("A", 1, 100, 10, 200) // tp far away; close at eod
	tr.SlippageEntry = 0
	resident, _ := pm.Open(tr, s, 1)
	require.True(t, resident)
	require.Empty(t, pm.CheckBar(s, 2))

	closed := pm.ForceCloseAll(s, 3)
	require.Len(t, closed, 1)

	// Short: MFE from the minimum low, MAE from the maximum high.
	assert.InDelta(t, (70.0-100.0)*100/100.0, closed[0].MFE, 1e-9)
	assert.InDelta(t, (120.0-100.0)*100/100.0, closed[0].MAE, 1e-9)
	assert.Equal(t, 2, closed[0].DurationBars)
}

func TestRiskManagerSeesEveryClose(t *testing.T) {
	t.Parallel()

	pm, rm := newPM(t, 0.001)
	s := series("A",
		bar(100, 95, 100),
		bar(100, 77, 100), // immediate tp
	)

	tr := pending("A", 1, 100, 78, 200)
	_, closed := pm.Open(tr, s, 1)
	require.NotNil(t, closed)

	p, ok := rm.Profile("A")
	require.True(t, ok)
	assert.Equal(t, 1, p.Trades)
	assert.InDelta(t, 1000+closed.PnLUSDT, rm.CurrentCapital, 1e-9)
}

package sim

import "time"

// Exit reasons for a simulated fill.
const (
	ReasonTakeProfit = "tp"
	ReasonStopLoss   = "sl"
	ReasonEndOfData  = "eod"
)

// Trade is one short position through its full lifecycle. Entry fields are
// set when the trade is constructed; exit fields are all unset until the
// trade closes and are then all set together (Closed guards that).
type Trade struct {
	Symbol string
	ID     string

	// Entry
	EntryTime     time.Time
	EntryIdx      int
	EntryPrice    float64
	EntryFee      float64
	SlippageEntry float64

	// Strategy context
	LocalHigh     float64
	PumpStartTime time.Time
	PumpEndTime   time.Time
	PumpPercent   float64

	TPPrice float64
	SLPrice float64

	PositionSize float64

	// Exit
	Closed       bool
	ExitTime     time.Time
	ExitIdx      int
	ExitPrice    float64
	ExitFee      float64
	SlippageExit float64
	ExitReason   string

	// Realized results
	PnLUSDT       float64
	PnLPercent    float64
	FeesTotal     float64
	SlippageTotal float64

	DurationBars int

	// MFE/MAE over [EntryIdx, ExitIdx], percent of entry price. For a short
	// the favorable excursion is the deepest low, the adverse one the
	// highest high.
	MFE float64
	MAE float64
}

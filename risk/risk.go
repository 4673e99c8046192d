// Package risk is the single authoritative source for per-symbol position
// sizing. The simulation core and any live execution layer must consume the
// same Manager so simulated and real sizing cannot drift apart.
package risk

import "time"

const historyLimit = 1000

// Profile accumulates per-symbol trade outcomes.
type Profile struct {
	Trades     int
	Profitable int

	// TotalPnLPercent and WorstPnLPercent are in percent units, as reported
	// by OnTradeResult.
	TotalPnLPercent float64
	WorstPnLPercent float64
}

// Record is one closed trade as seen by the risk manager.
type Record struct {
	Time       time.Time
	Symbol     string
	PnLUSDT    float64
	PnLPercent float64
}

// Manager derives a position-size multiplier from each symbol's history.
// It is not safe for concurrent use; each run (or parallel worker) owns one.
type Manager struct {
	InitialCapital    float64
	CurrentCapital    float64
	PeakCapital       float64
	ConsecutiveLosses int

	profiles map[string]*Profile
	history  []Record
}

func NewManager(initialCapital float64) *Manager {
	return &Manager{
		InitialCapital: initialCapital,
		CurrentCapital: initialCapital,
		PeakCapital:    initialCapital,
		profiles:       make(map[string]*Profile),
	}
}

// GetPositionMultiplier returns the size scaling for a symbol:
//
//	1.0  proven symbol (>=3 trades, win rate >= 70%, no blowup)
//	0.5  unseen symbol, thin history, or win rate below 70%
//	0.25 any past trade worse than -200%
func (m *Manager) GetPositionMultiplier(symbol string) float64 {
	p, ok := m.profiles[symbol]
	if !ok {
		return 0.5
	}

	if p.Trades < 3 {
		return 0.5
	}

	if p.WorstPnLPercent < -200 {
		return 0.25
	}

	winRate := float64(p.Profitable) / float64(p.Trades)
	if winRate < 0.7 {
		return 0.5
	}

	return 1.0
}

// OnTradeResult folds one closed trade into the capital trajectory and the
// symbol's profile. Must be called exactly once per closed trade.
func (m *Manager) OnTradeResult(pnlUSDT, pnlPercent float64, symbol string) {
	m.CurrentCapital += pnlUSDT
	if m.CurrentCapital > m.PeakCapital {
		m.PeakCapital = m.CurrentCapital
	}

	if pnlUSDT < 0 {
		m.ConsecutiveLosses++
	} else {
		m.ConsecutiveLosses = 0
	}

	p, ok := m.profiles[symbol]
	if !ok {
		p = &Profile{}
		m.profiles[symbol] = p
	}
	p.Trades++
	p.TotalPnLPercent += pnlPercent
	if pnlPercent > 0 {
		p.Profitable++
	} else if pnlPercent < p.WorstPnLPercent {
		p.WorstPnLPercent = pnlPercent
	}

	m.history = append(m.history, Record{
		Time:       time.Now().UTC(),
		Symbol:     symbol,
		PnLUSDT:    pnlUSDT,
		PnLPercent: pnlPercent,
	})
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
}

// Profile returns a copy of the symbol's accumulated stats.
func (m *Manager) Profile(symbol string) (Profile, bool) {
	p, ok := m.profiles[symbol]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// History returns the bounded closed-trade history, oldest first.
func (m *Manager) History() []Record {
	out := make([]Record, len(m.history))
	copy(out, m.history)
	return out
}

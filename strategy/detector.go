// Package strategy detects pump candidates and tracks them through the
// stagnation state machine that arms a short entry.
package strategy

import (
	"pumpfade/events"
	"pumpfade/market"
)

// Detector flags breakout candidates: a rise of at least Threshold over the
// trailing Window bars.
type Detector struct {
	Window    int
	Threshold float64

	sink events.Sink
}

func NewDetector(window int, threshold float64, sink events.Sink) *Detector {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Detector{Window: window, Threshold: threshold, sink: sink}
}

// Scan inspects [idx-Window, idx] and returns a candidate anchored at the
// window start, or nil. When several bars tie for the window maximum the
// first occurrence wins. A zero anchor close yields no signal.
func (d *Detector) Scan(s *market.Series, idx int) *Entry {
	if idx < d.Window {
		return nil
	}

	start := idx - d.Window
	maxHigh := s.At(start).High
	maxIdx := start
	for i := start + 1; i <= idx; i++ {
		if h := s.At(i).High; h > maxHigh {
			maxHigh = h
			maxIdx = i
		}
	}

	startPrice := s.At(start).Close
	if startPrice <= 0 {
		return nil
	}

	pump := (maxHigh - startPrice) / startPrice
	if pump < d.Threshold {
		return nil
	}

	d.sink.PumpDetected(s.Symbol, idx, pump)

	return &Entry{
		Symbol:            s.Symbol,
		PumpStartIdx:      start,
		PumpEndIdx:        idx,
		LocalHigh:         maxHigh,
		LocalHighIdx:      maxIdx,
		PumpPriceStart:    startPrice,
		PumpPercent:       pump * 100,
		AddedIdx:          idx,
		LastHighUpdateIdx: idx,
	}
}

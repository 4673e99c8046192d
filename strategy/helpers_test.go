package strategy

import (
	"sync"
	"time"

	"pumpfade/market"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// bars builds a series where each bar i has the given high and close; open
// tracks close and low sits just under it unless overridden via lows.
func bars(symbol string, highs, closes []float64, lows ...[]float64) *market.Series {
	s := &market.Series{Symbol: symbol}
	for i := range highs {
		low := closes[i] * 0.99
		if len(lows) > 0 {
			low = lows[0][i]
		}
		s.Candles = append(s.Candles, market.Candle{
			Time:   testStart.Add(time.Duration(i) * 15 * time.Minute),
			Open:   closes[i],
			High:   highs[i],
			Low:    low,
			Close:  closes[i],
			Volume: 1000,
		})
	}
	return s
}

// recorder is an events.Sink that remembers everything it was told.
type recorder struct {
	mu     sync.Mutex
	pumps  []string
	opens  []string
	closes []string
	ticks  int
}

func (r *recorder) PumpDetected(symbol string, idx int, pct float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pumps = append(r.pumps, symbol)
}

func (r *recorder) WatchlistUpdated(symbol string, idx int, high float64, stall int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
}

func (r *recorder) PositionOpened(symbol, id string, idx int, price float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens = append(r.opens, id)
}

func (r *recorder) PositionClosed(symbol, id string, idx int, price float64, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes = append(r.closes, reason)
}

package market

import "time"

// Candle is one OHLCV bar. Candles are immutable once loaded and are
// addressed by their integer position within a Series.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ordered, gapless-by-index sequence of candles for one symbol.
// Lookback arithmetic over a Series assumes contiguous indices; no gap
// filling happens here (that is the data collaborator's job).
type Series struct {
	Symbol  string
	Candles []Candle
}

func (s *Series) Len() int { return len(s.Candles) }

func (s *Series) At(idx int) Candle { return s.Candles[idx] }

// LastClose returns the close of the final bar, or 0 for an empty series.
func (s *Series) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// Package events defines the structured tracing seam of the simulator.
// Components emit lifecycle events through an injectable Sink instead of
// printing, so tests assert on events and a live layer can forward them.
package events

// Sink receives strategy and position lifecycle events. Implementations must
// be cheap; they are called inside the bar loop.
type Sink interface {
	PumpDetected(symbol string, idx int, pumpPercent float64)
	WatchlistUpdated(symbol string, idx int, localHigh float64, stallCounter int)
	PositionOpened(symbol, tradeID string, idx int, entryPrice float64)
	PositionClosed(symbol, tradeID string, idx int, exitPrice float64, reason string)
}

// Nop discards all events. It is the default sink.
type Nop struct{}

func (Nop) PumpDetected(string, int, float64)               {}
func (Nop) WatchlistUpdated(string, int, float64, int)      {}
func (Nop) PositionOpened(string, string, int, float64)     {}
func (Nop) PositionClosed(string, string, int, float64, string) {}

package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanEmitsCandidate(t *testing.T) {
	t.Parallel()

	s := bars("PUMPUSDT",
		[]float64{100, 100, 100, 100, 130},
		[]float64{100, 100, 100, 100, 100},
	)

	d := NewDetector(4, 0.20, nil)
	e := d.Scan(s, 4)
	require.NotNil(t, e)

	assert.Equal(t, "PUMPUSDT", e.Symbol)
	assert.Equal(t, 0, e.PumpStartIdx)
	assert.Equal(t, 4, e.PumpEndIdx)
	assert.Equal(t, 130.0, e.LocalHigh)
	assert.Equal(t, 4, e.LocalHighIdx)
	assert.Equal(t, 100.0, e.PumpPriceStart)
	assert.InDelta(t, 30.0, e.PumpPercent, 1e-9)
	assert.Equal(t, 4, e.AddedIdx)
	assert.Equal(t, 0, e.StallCounter)
}

func TestScanBelowThreshold(t *testing.T) {
	t.Parallel()

	s := bars("X",
		[]float64{100, 100, 100, 100, 115},
		[]float64{100, 100, 100, 100, 100},
	)

	d := NewDetector(4, 0.20, nil)
	assert.Nil(t, d.Scan(s, 4))
}

func TestScanBeforeWindowFilled(t *testing.T) {
	t.Parallel()

	s := bars("X",
		[]float64{100, 100, 130},
		[]float64{100, 100, 100},
	)

	d := NewDetector(4, 0.20, nil)
	assert.Nil(t, d.Scan(s, 2))
}

func TestScanZeroAnchorPrice(t *testing.T) {
	t.Parallel()

	// A zero anchor close is not an error, just no signal.
	s := bars("X",
		[]float64{100, 100, 100, 100, 130},
		[]float64{0, 100, 100, 100, 100},
	)

	d := NewDetector(4, 0.20, nil)
	assert.Nil(t, d.Scan(s, 4))
}

func TestScanTieBreakFirstOccurrence(t *testing.T) {
	t.Parallel()

	s := bars("X",
		[]float64{100, 125, 125, 100, 125},
		[]float64{100, 100, 100, 100, 100},
	)

	d := NewDetector(4, 0.20, nil)
	e := d.Scan(s, 4)
	require.NotNil(t, e)
	assert.Equal(t, 1, e.LocalHighIdx)
	assert.Equal(t, 125.0, e.LocalHigh)
}

func TestScanReportsToSink(t *testing.T) {
	t.Parallel()

	s := bars("EVT",
		[]float64{100, 100, 100, 100, 130},
		[]float64{100, 100, 100, 100, 100},
	)

	rec := &recorder{}
	d := NewDetector(4, 0.20, rec)
	require.NotNil(t, d.Scan(s, 4))
	assert.Equal(t, []string{"EVT"}, rec.pumps)
}

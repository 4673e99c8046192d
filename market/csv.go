package market

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadStats reports what the loader skipped. Malformed rows are dropped, not
// fatal; the caller can decide whether the counts are acceptable.
type LoadStats struct {
	Rows     int
	BadLines int
}

// LoadCSV reads one symbol's candles from a CSV file with columns
// timestamp,open,high,low,close,volume. Timestamps are unix seconds,
// unix milliseconds or RFC3339. Rows must already be in time order.
func LoadCSV(symbol, path string) (*Series, LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open candles: %w", err)
	}
	defer f.Close()

	s := &Series{Symbol: symbol}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(strings.ToLower(line), "timestamp") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 6 {
			stats.BadLines++
			continue
		}

		ts, err := parseTime(parts[0])
		if err != nil {
			stats.BadLines++
			continue
		}

		var v [5]float64
		bad := false
		for i := 0; i < 5; i++ {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
			if err != nil {
				bad = true
				break
			}
		}
		if bad {
			stats.BadLines++
			continue
		}

		s.Candles = append(s.Candles, Candle{
			Time:   ts,
			Open:   v[0],
			High:   v[1],
			Low:    v[2],
			Close:  v[3],
			Volume: v[4],
		})
		stats.Rows++
	}

	if err := sc.Err(); err != nil {
		return nil, stats, err
	}
	if len(s.Candles) == 0 {
		return nil, stats, fmt.Errorf("no candles in %s", path)
	}
	return s, stats, nil
}

// LoadDir loads every *.csv in dir, one file per symbol, named <SYMBOL>.csv.
func LoadDir(dir string) (map[string]*Series, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no candle files in %s", dir)
	}

	out := make(map[string]*Series, len(paths))
	for _, p := range paths {
		symbol := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		s, st, err := LoadCSV(symbol, p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		if st.BadLines > 0 {
			fmt.Fprintf(os.Stderr, "ingest warnings %s: badLines=%d\n", symbol, st.BadLines)
		}
		out[symbol] = s
	}
	return out, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Heuristic: values past year 9999 in seconds are milliseconds.
		if n > 253402300799 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

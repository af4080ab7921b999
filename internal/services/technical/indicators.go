package technical

import "math"

// Pure indicator math over an ordered price series, oldest first.
// Edge cases resolve to documented defaults instead of errors so a
// short series never aborts an analysis cycle.

// RSI computes the relative strength index over the first `period`
// deltas of the series. Fewer than period+1 points returns the
// neutral 50. A series with no losing deltas returns 100.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// EMA seeds with the first price and folds the smoothing multiplier
// 2/(period+1) over the rest of the series, oldest to newest.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = (p-ema)*k + ema
	}
	return ema
}

// MACD returns the MACD line EMA(fast)-EMA(slow) and its signal line.
// The signal line is EMA(signal) over the single-element macd series,
// which degenerates to the macd value itself; this mirrors the
// upstream computation and is pinned by tests rather than corrected
// here, because consumers depend on the existing behavior. Fewer than
// `slow` points returns (0, 0).
func MACD(prices []float64, fast, slow, signal int) (macdLine, signalLine float64) {
	if len(prices) < slow {
		return 0, 0
	}
	macdLine = EMA(prices, fast) - EMA(prices, slow)
	signalLine = EMA([]float64{macdLine}, signal)
	return macdLine, signalLine
}

// Bollinger returns upper and lower bands sma ± k·σ, with σ the
// population standard deviation over the first `period` prices. Fewer
// than `period` points collapses both bands to the latest price.
func Bollinger(prices []float64, period int, k float64) (upper, lower float64) {
	if len(prices) < period {
		last := 0.0
		if len(prices) > 0 {
			last = prices[len(prices)-1]
		}
		return last, last
	}

	window := prices[:period]
	var sum float64
	for _, p := range window {
		sum += p
	}
	sma := sum / float64(period)

	var variance float64
	for _, p := range window {
		d := p - sma
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(period))

	return sma + k*sigma, sma - k*sigma
}

package technical

import (
	"math"
	"testing"
)

func TestRSIShortSeriesIsNeutral(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 50.0 {
		t.Fatalf("short series should be neutral 50, got %v", got)
	}
	if got := RSI(nil, 14); got != 50.0 {
		t.Fatalf("nil series should be neutral 50, got %v", got)
	}
}

func TestRSIAllGainsSaturates(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	if got := RSI(prices, 14); got != 100.0 {
		t.Fatalf("loss-free series should saturate at 100, got %v", got)
	}
}

func TestRSIMixedSeries(t *testing.T) {
	// 3 points up 2, 3 points down 1 within the window: RS = 6/3 = 2.
	prices := []float64{10, 12, 14, 16, 15, 14, 13}
	got := RSI(prices, 6)
	want := 100.0 - 100.0/(1.0+2.0)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	prices := []float64{5, 5, 5, 5, 5}
	if got := EMA(prices, 3); got != 5.0 {
		t.Fatalf("constant series EMA should be the constant, got %v", got)
	}
}

func TestEMASeedsWithFirstPrice(t *testing.T) {
	if got := EMA([]float64{42}, 12); got != 42.0 {
		t.Fatalf("single-point EMA should be the point, got %v", got)
	}
	if got := EMA(nil, 12); got != 0 {
		t.Fatalf("empty series EMA should be 0, got %v", got)
	}
}

func TestMACDShortSeriesIsZero(t *testing.T) {
	prices := make([]float64, 25) // fewer than slow=26
	macd, sig := MACD(prices, 12, 26, 9)
	if macd != 0 || sig != 0 {
		t.Fatalf("short series should be (0,0), got (%v,%v)", macd, sig)
	}
}

func TestMACDSignalLineFollowsMACDLine(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.5
	}
	macd, sig := MACD(prices, 12, 26, 9)
	if macd <= 0 {
		t.Fatalf("uptrending series should have positive macd, got %v", macd)
	}
	// signal line is an EMA over the single macd value
	if sig != macd {
		t.Fatalf("signal line should equal the macd line, got macd=%v sig=%v", macd, sig)
	}
}

func TestBollingerShortSeriesCollapsesToLatest(t *testing.T) {
	upper, lower := Bollinger([]float64{10, 11, 12}, 20, 2)
	if upper != 12 || lower != 12 {
		t.Fatalf("short series should collapse to latest price, got (%v,%v)", upper, lower)
	}
	upper, lower = Bollinger(nil, 20, 2)
	if upper != 0 || lower != 0 {
		t.Fatalf("empty series should collapse to 0, got (%v,%v)", upper, lower)
	}
}

func TestBollingerBandsSymmetricAroundSMA(t *testing.T) {
	prices := []float64{10, 12, 14, 16, 18}
	upper, lower := Bollinger(prices, 5, 2)
	sma := 14.0
	if math.Abs((upper+lower)/2-sma) > 1e-9 {
		t.Fatalf("bands should center on the SMA %v, got (%v,%v)", sma, upper, lower)
	}
	if upper <= lower {
		t.Fatalf("upper band must exceed lower, got (%v,%v)", upper, lower)
	}
	// population sigma over {10,12,14,16,18} is sqrt(8)
	wantHalf := 2 * math.Sqrt(8)
	if math.Abs((upper-lower)/2-wantHalf) > 1e-9 {
		t.Fatalf("half-width should be %v, got %v", wantHalf, (upper-lower)/2)
	}
}

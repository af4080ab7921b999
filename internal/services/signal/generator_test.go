package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
)

func newTestGenerator() *Generator {
	return NewGenerator(DefaultConfig(), zerolog.Nop())
}

func snap(price, volume float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		AssetAddress: "So11111111111111111111111111111111111111112",
		Price:        decimal.NewFromFloat(price),
		Volume24h:    decimal.NewFromFloat(volume),
		Timestamp:    time.Now().UTC(),
	}
}

func TestGenerateColdStartProducesNothing(t *testing.T) {
	sig, err := newTestGenerator().Generate(snap(1.0, 100), nil)
	if err != nil {
		t.Fatalf("cold start should not error: %v", err)
	}
	if sig != nil {
		t.Fatalf("first observation must not produce a signal, got %v", sig.SignalType)
	}
}

func TestGeneratePriceSpike(t *testing.T) {
	g := newTestGenerator()
	sig, err := g.Generate(snap(1.10, 100), snap(1.00, 100))
	if err != nil {
		t.Fatal(err)
	}
	if sig == nil || sig.SignalType != models.SignalPriceSpike {
		t.Fatalf("expected price spike, got %+v", sig)
	}
	// confidence = 0.5 + 0.10*0.3 + 0*0.2
	want := decimal.NewFromFloat(0.53)
	if !sig.Confidence.Equal(want) {
		t.Fatalf("confidence = %s, want %s", sig.Confidence, want)
	}
	if sig.PriceChange24h == nil || !sig.PriceChange24h.Equal(decimal.NewFromFloat(0.1)) {
		t.Fatalf("stored price change = %v", sig.PriceChange24h)
	}
}

func TestGeneratePriceDropUsesMagnitude(t *testing.T) {
	g := newTestGenerator()
	sig, err := g.Generate(snap(0.90, 100), snap(1.00, 100))
	if err != nil {
		t.Fatal(err)
	}
	if sig == nil || sig.SignalType != models.SignalPriceDrop {
		t.Fatalf("expected price drop, got %+v", sig)
	}
	// magnitude feeds confidence: 0.5 + |−0.10|*0.3
	want := decimal.NewFromFloat(0.53)
	if !sig.Confidence.Equal(want) {
		t.Fatalf("confidence = %s, want %s", sig.Confidence, want)
	}
	if !sig.PriceChange24h.IsNegative() {
		t.Fatalf("stored price change should keep its sign, got %s", sig.PriceChange24h)
	}
}

func TestGeneratePriceBeatsVolume(t *testing.T) {
	g := newTestGenerator()
	// both a 10% spike and a 2.5x volume surge: price wins
	// confidence = 0.5 + 0.10*0.3 + 1.5*0.2 = 0.83
	sig, err := g.Generate(snap(1.10, 250), snap(1.00, 100))
	if err != nil {
		t.Fatal(err)
	}
	if sig == nil || sig.SignalType != models.SignalPriceSpike {
		t.Fatalf("price move should outrank volume surge, got %+v", sig)
	}
	if !sig.Confidence.Equal(decimal.NewFromFloat(0.83)) {
		t.Fatalf("confidence = %s, want 0.83", sig.Confidence)
	}
}

func TestGenerateExtremeCombinedMoveSurfacesError(t *testing.T) {
	g := newTestGenerator()
	// 10% spike plus a 4x volume surge: 0.5 + 0.03 + 3.0*0.2 = 1.13
	sig, err := g.Generate(snap(1.10, 400), snap(1.00, 100))
	if err == nil {
		t.Fatalf("expected out-of-range confidence error, got %+v", sig)
	}
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *models.ValidationError, got %T: %v", err, err)
	}
	if verr.Field != "confidence" {
		t.Fatalf("error field = %q, want confidence", verr.Field)
	}
}

func TestGenerateVolumeSurge(t *testing.T) {
	g := newTestGenerator()
	sig, err := g.Generate(snap(1.01, 300), snap(1.00, 100))
	if err != nil {
		t.Fatal(err)
	}
	if sig == nil || sig.SignalType != models.SignalVolumeSurge {
		t.Fatalf("expected volume surge, got %+v", sig)
	}
	// confidence = 0.5 + 0.01*0.3 + 2.0*0.2 = 0.903
	want := decimal.NewFromFloat(0.903)
	if !sig.Confidence.Equal(want) {
		t.Fatalf("confidence = %s, want %s", sig.Confidence, want)
	}
}

func TestGenerateQuietMarketProducesNothing(t *testing.T) {
	g := newTestGenerator()
	sig, err := g.Generate(snap(1.01, 105), snap(1.00, 100))
	if err != nil {
		t.Fatal(err)
	}
	if sig != nil {
		t.Fatalf("sub-threshold deltas must not signal, got %v", sig.SignalType)
	}
}

func TestGenerateZeroPreviousVolumeUsesUnitDenominator(t *testing.T) {
	g := newTestGenerator()
	sig, err := g.Generate(snap(1.00, 2), snap(1.00, 0))
	if err != nil {
		t.Fatal(err)
	}
	// volume change = (2-0)/1 = 2 > 1.0 threshold
	if sig == nil || sig.SignalType != models.SignalVolumeSurge {
		t.Fatalf("newly traded asset should surge, got %+v", sig)
	}
	if !sig.VolumeChange24.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("volume change = %s, want 2", sig.VolumeChange24)
	}
}

func TestGenerateOutOfRangeConfidenceSurfaces(t *testing.T) {
	// heavy weights push confidence past 1 on a big move
	cfg := ConfigFromFloats(0.05, 1.0, 0.5, 2.0, 0.2)
	g := NewGenerator(cfg, zerolog.Nop())
	sig, err := g.Generate(snap(2.00, 100), snap(1.00, 100))
	if err == nil {
		t.Fatalf("expected validation error, got signal %+v", sig)
	}
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *models.ValidationError, got %T: %v", err, err)
	}
	if verr.Field != "confidence" {
		t.Fatalf("error field = %q, want confidence", verr.Field)
	}
}

func TestGenerateZeroPreviousPriceErrors(t *testing.T) {
	g := newTestGenerator()
	_, err := g.Generate(snap(1.00, 100), snap(0, 100))
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error on zero previous price, got %v", err)
	}
}

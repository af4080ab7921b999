package util

import (
    "testing"
    "time"
)

func TestParseTime(t *testing.T) {
    if _, ok := ParseTime(""); ok {
        t.Fatal("empty string must not parse")
    }
    if tm, ok := ParseTime("2026-08-30T12:00:00Z"); !ok || tm.Hour() != 12 {
        t.Fatalf("RFC3339 parse failed: %v %v", tm, ok)
    }
    if tm, ok := ParseTime("1756555200"); !ok || tm.Unix() != 1756555200 {
        t.Fatalf("unix seconds parse failed: %v %v", tm, ok)
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
    if got := ParseTimeDefault("garbage", def); !got.Equal(def) {
        t.Fatalf("expected default, got %v", got)
    }
}

func TestAlignRange(t *testing.T) {
    from := time.Date(2026, 8, 30, 10, 47, 13, 0, time.UTC)
    to := time.Date(2026, 8, 30, 14, 2, 59, 0, time.UTC)

    af, at := AlignRange(from, to, "1H")
    if af.Minute() != 0 || af.Hour() != 10 {
        t.Fatalf("from not aligned to hour: %v", af)
    }
    if at.Minute() != 0 || at.Hour() != 14 {
        t.Fatalf("to not aligned to hour: %v", at)
    }

    af, _ = AlignRange(from, to, "15m")
    if af.Minute() != 45 {
        t.Fatalf("from not aligned to 15m: %v", af)
    }

    // unknown interval falls back to hourly
    af, _ = AlignRange(from, to, "3W")
    if af.Minute() != 0 {
        t.Fatalf("fallback alignment: %v", af)
    }
}

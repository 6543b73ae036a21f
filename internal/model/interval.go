package model

import "time"

// Canonical candle intervals. Vendor-specific interval strings are mapped
// onto this set by the adapters; unknown intervals fall back to 1d.
const (
	Interval1m  = "1m"
	Interval5m  = "5m"
	Interval15m = "15m"
	Interval30m = "30m"
	Interval1h  = "1h"
	Interval4h  = "4h"
	Interval1d  = "1d"
	Interval1w  = "1w"
)

// NormalizeInterval maps an interval string onto the canonical set,
// defaulting to 1d for anything unknown.
func NormalizeInterval(interval string) string {
	switch interval {
	case Interval1m, Interval5m, Interval15m, Interval30m,
		Interval1h, Interval4h, Interval1d, Interval1w:
		return interval
	default:
		return Interval1d
	}
}

// IsValidInterval reports whether interval belongs to the canonical set.
func IsValidInterval(interval string) bool {
	switch interval {
	case Interval1m, Interval5m, Interval15m, Interval30m,
		Interval1h, Interval4h, Interval1d, Interval1w:
		return true
	default:
		return false
	}
}

// IntervalDuration returns the bar width of a canonical interval.
func IntervalDuration(interval string) time.Duration {
	switch NormalizeInterval(interval) {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1w:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// CandlesPerDay returns the expected number of bars per day for an
// interval, used to estimate import totals for progress reporting.
func CandlesPerDay(interval string) float64 {
	switch NormalizeInterval(interval) {
	case Interval1m:
		return 1440
	case Interval5m:
		return 288
	case Interval15m:
		return 96
	case Interval30m:
		return 48
	case Interval1h:
		return 24
	case Interval4h:
		return 6
	case Interval1w:
		return 1.0 / 7.0
	default:
		return 1
	}
}

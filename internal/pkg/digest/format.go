package digest

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
)

// InsufficientText replaces every missing metric, whatever the reason.
const InsufficientText = "Insufficient data"

// Currency formats a signed dollar amount as +$1.2M, -$3.4k or +$512.
func Currency(v float64) string {
	sign := "+"
	if v < 0 {
		sign = "-"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s$%.1fk", sign, abs/1_000)
	default:
		return fmt.Sprintf("%s$%.0f", sign, abs)
	}
}

func formatValue[T any](v metrics.Value[T], format func(T) string) string {
	x, ok := v.Get()
	if !ok {
		return InsufficientText
	}
	return format(x)
}

func percent(v float64) string  { return fmt.Sprintf("%.1f%%", v) }
func multiple(v float64) string { return fmt.Sprintf("%.1fx", v) }
func signal(s metrics.Signal) string {
	return string(s)
}

// plain prints a number the way it was computed, without padding zeros.
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

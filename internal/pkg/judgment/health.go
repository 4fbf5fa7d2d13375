package judgment

import "github.com/ManuelReschke/Candor/internal/pkg/metrics"

type Health string

const (
	HealthHealthy Health = "HEALTHY"
	HealthFragile Health = "FRAGILE"
	HealthAtRisk  Health = "AT_RISK"
)

// Score counts bad and warning signals independently of the judgment rules.
// The thresholds differ from the rules on purpose and must not be merged.
func Score(s metrics.Set) Health {
	v := newView(s)

	bad := count(
		v.hasNRR && v.nrr < 90,
		v.hasBurn && v.burn > 3,
		v.hasSignal && v.signal == metrics.SignalAtRisk,
		v.hasARR && v.arr < -5000,
	)
	warn := count(
		v.hasNRR && v.nrr < 100,
		v.hasBurn && v.burn > 2,
		v.hasARR && v.arr <= 0,
		v.hasSignal && v.signal == metrics.SignalStable && v.hasNRR && v.nrr < 105,
	)

	switch {
	case bad >= 2:
		return HealthAtRisk
	case bad >= 1, warn >= 2:
		return HealthFragile
	default:
		return HealthHealthy
	}
}

func count(signals ...bool) int {
	n := 0
	for _, s := range signals {
		if s {
			n++
		}
	}
	return n
}

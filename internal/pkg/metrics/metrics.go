// Package metrics turns windowed revenue totals into the five weekly numbers.
package metrics

import (
	"encoding/json"
	"math"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
)

// Signal is the coarse leading-indicator classification.
type Signal string

const (
	SignalStrong Signal = "STRONG"
	SignalStable Signal = "STABLE"
	SignalAtRisk Signal = "AT_RISK"
)

// Display names, also used as entries of the insufficient list.
const (
	NameNRR                  = "NRR"
	NameNewNetARR            = "New Net ARR"
	NameBurnMultiple         = "Burn Multiple"
	NameCoreActionConversion = "Core Action Conversion"
	NameForwardSignal        = "Forward Signal"
)

// Inputs are the revenue totals of the previous and current 30 day windows
// in major currency units, plus the manually entered monthly burn (0 if the
// founder never entered one).
type Inputs struct {
	Previous   float64
	Current    float64
	NewRevenue float64
	Burn       float64
}

// Set is the fixed-shape result of one computation.
type Set struct {
	NRR                  Value[float64]
	NewNetARR            Value[float64]
	BurnMultiple         Value[float64]
	CoreActionConversion Value[float64]
	ForwardSignal        Value[Signal]
}

// Compute derives the metric set from in. It never fails: anything that
// cannot be computed is reported as insufficient or absent.
func Compute(in Inputs) Set {
	var s Set

	if in.Previous > 0 {
		retained := in.Current - in.NewRevenue
		s.NRR = Present(round1(retained / in.Previous * 100))
	} else {
		s.NRR = Insufficient[float64]("no revenue in the previous 30 days")
	}

	arr := roundHalfUp((in.Current - in.Previous) * 12)
	s.NewNetARR = Present(arr)

	switch {
	case in.Burn > 0 && arr > 0:
		s.BurnMultiple = Present(round1(in.Burn / (arr / 12)))
	case in.Burn == 0:
		s.BurnMultiple = Insufficient[float64]("no monthly burn entered")
	default:
		s.BurnMultiple = Absent[float64]("new net ARR is not positive")
	}

	s.CoreActionConversion = Insufficient[float64]("product event tracking is not connected")

	nrr, nrrOK := s.NRR.Get()
	_, arrOK := s.NewNetARR.Get()
	if nrrOK && arrOK {
		switch {
		case nrr >= 110 && arr > 0:
			s.ForwardSignal = Present(SignalStrong)
		case nrr >= 100 && arr >= 0:
			s.ForwardSignal = Present(SignalStable)
		default:
			s.ForwardSignal = Present(SignalAtRisk)
		}
	} else {
		s.ForwardSignal = Insufficient[Signal]("requires NRR and new net ARR")
	}

	return s
}

// Insufficient lists the display names of every metric flagged insufficient,
// in display order.
func (s Set) Insufficient() []string {
	out := make([]string, 0, 5)
	if s.NRR.IsInsufficient() {
		out = append(out, NameNRR)
	}
	if s.NewNetARR.IsInsufficient() {
		out = append(out, NameNewNetARR)
	}
	if s.BurnMultiple.IsInsufficient() {
		out = append(out, NameBurnMultiple)
	}
	if s.CoreActionConversion.IsInsufficient() {
		out = append(out, NameCoreActionConversion)
	}
	if s.ForwardSignal.IsInsufficient() {
		out = append(out, NameForwardSignal)
	}
	return out
}

// Usable reports whether at least one revenue metric is present, which is
// the minimum for a weekly email worth sending.
func (s Set) Usable() bool {
	return s.NRR.IsPresent() || s.NewNetARR.IsPresent()
}

// Snapshot converts the set into a storage row.
func (s Set) Snapshot(companyID string, computedAt time.Time, health string) *models.Snapshot {
	snap := &models.Snapshot{
		CompanyID:      companyID,
		ComputedAt:     computedAt,
		NRR:            s.NRR.Ptr(),
		NewNetARR:      s.NewNetARR.Ptr(),
		BurnMultiple:   s.BurnMultiple.Ptr(),
		CoreActionConv: s.CoreActionConversion.Ptr(),
	}
	if sig, ok := s.ForwardSignal.Get(); ok {
		str := string(sig)
		snap.ForwardSignal = &str
	}
	if health != "" {
		snap.HealthScore = &health
	}
	return snap
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NRR                  Value[float64] `json:"nrr"`
		NewNetARR            Value[float64] `json:"new_net_arr"`
		BurnMultiple         Value[float64] `json:"burn_multiple"`
		CoreActionConversion Value[float64] `json:"core_action_conv"`
		ForwardSignal        Value[Signal]  `json:"forward_signal"`
		Insufficient         []string       `json:"insufficient"`
	}{s.NRR, s.NewNetARR, s.BurnMultiple, s.CoreActionConversion, s.ForwardSignal, s.Insufficient()})
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func round1(x float64) float64 {
	return roundHalfUp(x*10) / 10
}

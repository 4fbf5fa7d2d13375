package judgment

import (
	"testing"

	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
)

// set builds a fixture. Nil pointers become insufficient values.
func set(nrr, arr, burn *float64, signal metrics.Signal) metrics.Set {
	s := metrics.Set{
		CoreActionConversion: metrics.Insufficient[float64]("untracked"),
	}
	s.NRR = opt(nrr)
	s.NewNetARR = opt(arr)
	s.BurnMultiple = opt(burn)
	if signal != "" {
		s.ForwardSignal = metrics.Present(signal)
	} else {
		s.ForwardSignal = metrics.Insufficient[metrics.Signal]("missing")
	}
	return s
}

func opt(f *float64) metrics.Value[float64] {
	if f == nil {
		return metrics.Insufficient[float64]("missing")
	}
	return metrics.Present(*f)
}

func f(v float64) *float64 { return &v }

func TestJudgeRuleOrder(t *testing.T) {
	tests := []struct {
		name string
		in   metrics.Set
		rule string
		want string
	}{
		{
			name: "existential burn beats retention broken",
			in:   set(f(80), f(0), f(3.5), metrics.SignalAtRisk),
			rule: "existential_burn",
			want: "You are spending more than 3x what you earn in new revenue - this trajectory ends the company.",
		},
		{
			name: "existential burn treats missing ARR as zero",
			in:   set(f(120), nil, f(4), ""),
			rule: "existential_burn",
		},
		{
			name: "retention broken",
			in:   set(f(84.5), f(1200), nil, metrics.SignalAtRisk),
			rule: "retention_broken",
			want: "NRR of 84.5% means your existing base is shrinking faster than you can replace it.",
		},
		{
			name: "growth masking retention",
			in:   set(f(92), f(6000), f(1.2), metrics.SignalAtRisk),
			rule: "growth_masking_retention",
			want: "New revenue is masking a retention problem - NRR of 92% means growth will stall the moment sales slow.",
		},
		{
			name: "burn too high",
			in:   set(f(104), f(12000), f(2.5), metrics.SignalStable),
			rule: "burn_too_high",
			want: "Burn Multiple of 2.5x is too high - you're buying growth at a price that won't survive a fundraise.",
		},
		{
			name: "flat revenue",
			in:   set(f(101), f(0), nil, metrics.SignalStable),
			rule: "flat_revenue",
		},
		{
			name: "flat revenue wins over an at risk signal",
			in:   set(f(115), f(-600), f(1), metrics.SignalAtRisk),
			rule: "flat_revenue",
		},
		{
			name: "stable not compounding",
			in:   set(f(105), f(3000), f(1.1), metrics.SignalStable),
			rule: "stable_not_compounding",
			want: "NRR of 105% is stable but not compounding - push expansion before assuming this holds.",
		},
		{
			name: "genuine compounding without burn",
			in:   set(f(118.2), f(24000), nil, metrics.SignalStrong),
			rule: "genuine_compounding",
			want: "NRR of 118.2% with positive net ARR is genuine compounding - don't change what's working.",
		},
		{
			name: "compounding with mid burn falls through",
			in:   set(f(118.2), f(24000), f(1.8), metrics.SignalStrong),
			rule: "verify_inputs",
		},
		{
			name: "insufficient data",
			in:   set(nil, nil, nil, ""),
			rule: "insufficient_data",
			want: "Insufficient data this week - connect product event tracking to unlock the full picture.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Judge(tt.in)
			assert.Equal(t, tt.rule, got.Rule)
			if tt.want != "" {
				assert.Equal(t, tt.want, got.Sentence)
			}
		})
	}
}

func TestJudgeLeadingIndicatorsRule(t *testing.T) {
	// AT_RISK signal with NRR >= 100 only reaches rule 6 when no ARR is known
	// and rules 1-5 do not apply.
	s := set(f(100), nil, nil, metrics.SignalAtRisk)
	s.NewNetARR = metrics.Absent[float64]("unknown")
	assert.Equal(t, "leading_indicators_turning", Judge(s).Rule)
}

func TestJudgeRetentionScenario(t *testing.T) {
	s := metrics.Compute(metrics.Inputs{Previous: 10000, Current: 9000, NewRevenue: 500, Burn: 5000})
	assert.Equal(t, HealthAtRisk, Score(s))

	// 10000/9000/500 lands on NRR exactly 85.0. The retention rule fires only
	// below 85, so this input is not "retention broken" even though it is
	// often quoted as the example for that rule; the strict threshold wins
	// and the next case, at 84.9, is the one that fires it.
	assert.NotEqual(t, "retention_broken", Judge(s).Rule)

	s = metrics.Compute(metrics.Inputs{Previous: 10000, Current: 9000, NewRevenue: 510, Burn: 5000})
	got := Judge(s)
	assert.Equal(t, "retention_broken", got.Rule)
	assert.Equal(t, "NRR of 84.9% means your existing base is shrinking faster than you can replace it.", got.Sentence)
	assert.Equal(t, HealthAtRisk, Score(s))
}

func TestJudgeAlwaysReturnsASentence(t *testing.T) {
	got := Judge(metrics.Set{})
	assert.Equal(t, "verify_inputs", got.Rule)
	assert.NotEmpty(t, got.Sentence)
}

// Package judgment maps a metric set to one sentence and a health label.
package judgment

import (
	"strconv"

	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
)

// rule is one entry of the decision list. Sentence is only called when
// Match returned true.
type rule struct {
	Name     string
	Match    func(m view) bool
	Sentence func(m view) string
}

// view flattens a metric set into the nullable numbers the rules compare.
// Rules that treat a missing New Net ARR as zero use arrOrZero.
type view struct {
	nrr, arr, burn          float64
	hasNRR, hasARR, hasBurn bool
	signal                  metrics.Signal
	hasSignal               bool
	insufficient            int
}

func newView(s metrics.Set) view {
	var v view
	v.nrr, v.hasNRR = s.NRR.Get()
	v.arr, v.hasARR = s.NewNetARR.Get()
	v.burn, v.hasBurn = s.BurnMultiple.Get()
	v.signal, v.hasSignal = s.ForwardSignal.Get()
	v.insufficient = len(s.Insufficient())
	return v
}

func (v view) arrOrZero() float64 {
	if !v.hasARR {
		return 0
	}
	return v.arr
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// rules is the ordered decision list. The first matching rule wins.
var rules = []rule{
	{
		Name:  "existential_burn",
		Match: func(m view) bool { return m.hasBurn && m.burn > 3 && m.arrOrZero() <= 0 },
		Sentence: func(view) string {
			return "You are spending more than 3x what you earn in new revenue - this trajectory ends the company."
		},
	},
	{
		Name:  "retention_broken",
		Match: func(m view) bool { return m.hasNRR && m.nrr < 85 },
		Sentence: func(m view) string {
			return "NRR of " + num(m.nrr) + "% means your existing base is shrinking faster than you can replace it."
		},
	},
	{
		Name:  "growth_masking_retention",
		Match: func(m view) bool { return m.hasNRR && m.nrr < 100 && m.arrOrZero() > 0 },
		Sentence: func(m view) string {
			return "New revenue is masking a retention problem - NRR of " + num(m.nrr) + "% means growth will stall the moment sales slow."
		},
	},
	{
		Name:  "burn_too_high",
		Match: func(m view) bool { return m.hasBurn && m.burn > 2 && m.arrOrZero() > 0 },
		Sentence: func(m view) string {
			return "Burn Multiple of " + num(m.burn) + "x is too high - you're buying growth at a price that won't survive a fundraise."
		},
	},
	{
		Name:  "flat_revenue",
		Match: func(m view) bool { return m.hasARR && m.arr <= 0 && m.hasNRR && m.nrr >= 100 },
		Sentence: func(view) string {
			return "Revenue is flat - retention is holding but nothing new is coming in."
		},
	},
	{
		Name: "leading_indicators_turning",
		Match: func(m view) bool {
			return m.hasSignal && m.signal == metrics.SignalAtRisk && m.hasNRR && m.nrr >= 100
		},
		Sentence: func(view) string {
			return "The leading indicators are turning before the revenue does - act before Stripe confirms it."
		},
	},
	{
		Name:  "stable_not_compounding",
		Match: func(m view) bool { return m.hasNRR && m.nrr >= 100 && m.nrr < 110 && m.arrOrZero() > 0 },
		Sentence: func(m view) string {
			return "NRR of " + num(m.nrr) + "% is stable but not compounding - push expansion before assuming this holds."
		},
	},
	{
		Name: "genuine_compounding",
		Match: func(m view) bool {
			return m.hasNRR && m.nrr >= 110 && m.arrOrZero() > 0 && (!m.hasBurn || m.burn < 1.5)
		},
		Sentence: func(m view) string {
			return "NRR of " + num(m.nrr) + "% with positive net ARR is genuine compounding - don't change what's working."
		},
	},
	{
		Name:  "insufficient_data",
		Match: func(m view) bool { return m.insufficient >= 3 },
		Sentence: func(view) string {
			return "Insufficient data this week - connect product event tracking to unlock the full picture."
		},
	},
	{
		Name:  "verify_inputs",
		Match: func(view) bool { return true },
		Sentence: func(view) string {
			return "One or more metrics couldn't be computed - verify your Stripe data and burn input are current."
		},
	},
}

// Result is the chosen sentence and the name of the rule that produced it.
type Result struct {
	Rule     string
	Sentence string
}

// Judge evaluates the rules top to bottom and returns the first match. The last
// rule always matches.
func Judge(s metrics.Set) Result {
	v := newView(s)
	for _, r := range rules {
		if r.Match(v) {
			return Result{Rule: r.Name, Sentence: r.Sentence(v)}
		}
	}
	return Result{}
}

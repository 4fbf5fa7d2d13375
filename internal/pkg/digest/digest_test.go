package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/judgment"
	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var weekOf = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

func TestCurrency(t *testing.T) {
	tests := map[float64]string{
		0:          "+$0",
		512:        "+$512",
		-999:       "-$999",
		1000:       "+$1.0k",
		-12000:     "-$12.0k",
		250_000:    "+$250.0k",
		1_500_000:  "+$1.5M",
		-2_000_000: "-$2.0M",
	}
	for in, want := range tests {
		assert.Equal(t, want, Currency(in), "input %v", in)
	}
}

func TestRenderPlainText(t *testing.T) {
	set := metrics.Compute(metrics.Inputs{Previous: 10000, Current: 9000, NewRevenue: 500, Burn: 5000})
	sentence := judgment.Judge(set).Sentence

	email, err := Render(set, sentence, judgment.Score(set), weekOf)
	require.NoError(t, err)

	want := "Week of March 2, 2026\n\n" +
		"Net Revenue Retention: 85.0%\n" +
		"New Net ARR: -$12.0k\n" +
		"Burn Multiple: Insufficient data\n" +
		"Core Action Conversion: Insufficient data\n" +
		"Forward Signal: AT_RISK\n\n" +
		sentence + "\n\n--\nCandor | weekly@candor.so\nReply to cancel."
	assert.Equal(t, want, email.Text)
	assert.Equal(t, "Your SaaS is losing ground - NRR at 85%", email.Subject)
}

func TestRenderHTMLEscapesAndIncludesLines(t *testing.T) {
	set := metrics.Compute(metrics.Inputs{Previous: 1000, Current: 1300, Burn: 300})

	email, err := Render(set, "Growth <strong> & steady", judgment.Score(set), weekOf)
	require.NoError(t, err)

	assert.Contains(t, email.HTML, "Week of March 2, 2026")
	assert.Contains(t, email.HTML, "Net Revenue Retention: </span><span class=\"value\">130.0%")
	assert.Contains(t, email.HTML, "+$3.6k")
	assert.Contains(t, email.HTML, "Growth &lt;strong&gt; &amp; steady")
	assert.NotContains(t, email.HTML, "<strong>")
}

func TestRenderParseRoundTrip(t *testing.T) {
	fixtures := []metrics.Inputs{
		{Previous: 10000, Current: 9000, NewRevenue: 500, Burn: 5000},
		{Previous: 0, Current: 1500, NewRevenue: 1500},
		{Previous: 40000, Current: 52000, NewRevenue: 2000, Burn: 9000},
		{Previous: 2_000_000, Current: 2_200_000, Burn: 150000},
	}

	for _, in := range fixtures {
		set := metrics.Compute(in)
		email, err := Render(set, judgment.Judge(set).Sentence, judgment.Score(set), weekOf)
		require.NoError(t, err)

		assert.Equal(t, Lines(set), ParseLines(email.Text))
	}
}

func TestMissingValuesNeverRenderAsZero(t *testing.T) {
	set := metrics.Set{}
	email, err := Render(set, "x", judgment.HealthHealthy, weekOf)
	require.NoError(t, err)

	for _, l := range ParseLines(email.Text) {
		assert.Equal(t, InsufficientText, l.Value, l.Label)
	}
	assert.False(t, strings.Contains(email.Text, ": 0"))
}

func TestSubject(t *testing.T) {
	s := func(nrr, burn *float64) metrics.Set {
		var set metrics.Set
		if nrr != nil {
			set.NRR = metrics.Present(*nrr)
		}
		if burn != nil {
			set.BurnMultiple = metrics.Present(*burn)
		}
		return set
	}
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		set    metrics.Set
		health judgment.Health
		want   string
	}{
		{"at risk from nrr", s(f(82.4), f(4)), judgment.HealthAtRisk, "Your SaaS is losing ground - NRR at 82%"},
		{"at risk from burn", s(f(95), f(3.4)), judgment.HealthAtRisk, "Burn Multiple hit 3.4x - this needs to change"},
		{"at risk generic", s(nil, nil), judgment.HealthAtRisk, "Your SaaS is at risk - read this now"},
		{"fragile from nrr", s(f(96), nil), judgment.HealthFragile, "Your SaaS is growing - but it's fragile"},
		{"fragile from burn", s(f(104), f(2.2)), judgment.HealthFragile, "Growth is happening - but you're paying too much for it"},
		{"fragile generic", s(f(104), nil), judgment.HealthFragile, "Your SaaS is fragile - one number needs attention"},
		{"healthy compounding", s(f(121.6), nil), judgment.HealthHealthy, "Your SaaS is compounding - NRR at 122%"},
		{"healthy generic", s(f(104), nil), judgment.HealthHealthy, "Your SaaS is healthy - here's this week's picture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subject(tt.set, tt.health))
		})
	}
}

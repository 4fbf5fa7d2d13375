package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNRRInsufficientWithoutPreviousRevenue(t *testing.T) {
	for _, prev := range []float64{0, -1, -2500.5} {
		set := Compute(Inputs{Previous: prev, Current: 4000, NewRevenue: 100, Burn: 1000})

		_, ok := set.NRR.Get()
		assert.False(t, ok, "previous=%v", prev)
		assert.True(t, set.NRR.IsInsufficient())
		assert.Contains(t, set.Insufficient(), NameNRR)
	}
}

func TestComputePreviousZeroScenario(t *testing.T) {
	set := Compute(Inputs{Previous: 0, Current: 1500, NewRevenue: 1500})

	arr, ok := set.NewNetARR.Get()
	require.True(t, ok)
	assert.Equal(t, 18000.0, arr)
	assert.False(t, set.ForwardSignal.IsPresent())
	assert.Equal(t, []string{NameNRR, NameBurnMultiple, NameCoreActionConversion, NameForwardSignal}, set.Insufficient())
}

func TestComputeBurnMultipleReasons(t *testing.T) {
	t.Run("no burn entered is insufficient", func(t *testing.T) {
		set := Compute(Inputs{Previous: 1000, Current: 2000, Burn: 0})
		assert.True(t, set.BurnMultiple.IsInsufficient())
		assert.Contains(t, set.Insufficient(), NameBurnMultiple)
	})

	t.Run("negative growth is absent but not insufficient", func(t *testing.T) {
		set := Compute(Inputs{Previous: 2000, Current: 1000, Burn: 5000})
		_, ok := set.BurnMultiple.Get()
		assert.False(t, ok)
		assert.False(t, set.BurnMultiple.IsInsufficient())
		assert.NotEmpty(t, set.BurnMultiple.Reason())
		assert.NotContains(t, set.Insufficient(), NameBurnMultiple)
	})

	t.Run("flat revenue with burn is absent", func(t *testing.T) {
		set := Compute(Inputs{Previous: 2000, Current: 2000, Burn: 5000})
		assert.False(t, set.BurnMultiple.IsPresent())
		assert.False(t, set.BurnMultiple.IsInsufficient())
	})

	t.Run("positive growth computes the multiple", func(t *testing.T) {
		// ARR = 1000*12 = 12000, monthly = 1000, multiple = 2500/1000
		set := Compute(Inputs{Previous: 1000, Current: 2000, Burn: 2500})
		bm, ok := set.BurnMultiple.Get()
		require.True(t, ok)
		assert.Equal(t, 2.5, bm)
	})
}

func TestComputeRetentionScenario(t *testing.T) {
	set := Compute(Inputs{Previous: 10000, Current: 9000, NewRevenue: 500, Burn: 5000})

	nrr, ok := set.NRR.Get()
	require.True(t, ok)
	assert.Equal(t, 85.0, nrr)

	arr, ok := set.NewNetARR.Get()
	require.True(t, ok)
	assert.Equal(t, -12000.0, arr)

	assert.False(t, set.BurnMultiple.IsPresent())
	assert.False(t, set.BurnMultiple.IsInsufficient())

	sig, ok := set.ForwardSignal.Get()
	require.True(t, ok)
	assert.Equal(t, SignalAtRisk, sig)
}

func TestCoreActionConversionIsAlwaysInsufficient(t *testing.T) {
	set := Compute(Inputs{Previous: 5000, Current: 9000, NewRevenue: 1000, Burn: 100})
	assert.True(t, set.CoreActionConversion.IsInsufficient())
	assert.Equal(t, []string{NameCoreActionConversion}, set.Insufficient())
}

func TestForwardSignalThresholds(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want Signal
	}{
		{"strong", Inputs{Previous: 1000, Current: 1200}, SignalStrong},
		{"stable at 100 and flat", Inputs{Previous: 1000, Current: 1000}, SignalStable},
		{"stable below 110 with growth", Inputs{Previous: 1000, Current: 1100, NewRevenue: 50}, SignalStable},
		{"strong retention but shrinking is at risk", Inputs{Previous: 1000, Current: 990, NewRevenue: -200}, SignalAtRisk},
		{"retention below 100", Inputs{Previous: 1000, Current: 1100, NewRevenue: 200}, SignalAtRisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := Compute(tt.in).ForwardSignal.Get()
			require.True(t, ok)
			assert.Equal(t, tt.want, sig)
		})
	}
}

func TestRoundingMatchesHalfUp(t *testing.T) {
	assert.Equal(t, 3.0, roundHalfUp(2.5))
	assert.Equal(t, -2.0, roundHalfUp(-2.5))
	assert.Equal(t, 1.5, round1(1.45000001))
}

func TestSetSnapshotAndJSON(t *testing.T) {
	set := Compute(Inputs{Previous: 0, Current: 500})
	at := time.Date(2026, 5, 3, 23, 0, 0, 0, time.UTC)

	snap := set.Snapshot("co_1", at, "FRAGILE")
	assert.Nil(t, snap.NRR)
	require.NotNil(t, snap.NewNetARR)
	assert.Equal(t, 6000.0, *snap.NewNetARR)
	assert.Nil(t, snap.ForwardSignal)
	require.NotNil(t, snap.HealthScore)
	assert.Equal(t, "FRAGILE", *snap.HealthScore)

	raw, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nrr": null,
		"new_net_arr": 6000,
		"burn_multiple": null,
		"core_action_conv": null,
		"forward_signal": null,
		"insufficient": ["NRR", "Burn Multiple", "Core Action Conversion", "Forward Signal"]
	}`, string(raw))
}

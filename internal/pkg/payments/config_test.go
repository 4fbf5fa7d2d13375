package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(false), ErrNotConfigured)
	assert.NoError(t, Config{SecretKey: "sk_test_123"}.Validate(false))
	assert.ErrorIs(t, Config{SecretKey: "sk_test_123"}.Validate(true), ErrNotConfigured)
	assert.NoError(t, Config{SecretKey: "sk_live_123"}.Validate(true))
}

func TestConfigPriceFor(t *testing.T) {
	cfg := Config{PriceMonthly: "price_m", PriceAnnual: "price_a"}
	assert.Equal(t, "price_a", cfg.PriceFor("annual"))
	assert.Equal(t, "price_m", cfg.PriceFor("monthly"))
	assert.Equal(t, "price_m", cfg.PriceFor(""))
}

func TestChargeCounts(t *testing.T) {
	assert.True(t, Charge{Status: "succeeded"}.Counts())
	assert.False(t, Charge{Status: "succeeded", Refunded: true}.Counts())
	assert.False(t, Charge{Status: "failed"}.Counts())
}

func TestMapChargeErrorFallsThrough(t *testing.T) {
	err := mapChargeError(assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrCardDeclined)
}

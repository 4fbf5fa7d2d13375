package payments

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
)

// Config holds Stripe settings.
type Config struct {
	SecretKey     string
	WebhookSecret string
	ClientID      string
	PriceMonthly  string
	PriceAnnual   string
	AppURL        string
}

// LoadConfig reads Stripe settings from the environment.
func LoadConfig() Config {
	return Config{
		SecretKey:     env.GetEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		ClientID:      env.GetEnv("STRIPE_CLIENT_ID", ""),
		PriceMonthly:  env.GetEnv("STRIPE_PRICE_MONTHLY", ""),
		PriceAnnual:   env.GetEnv("STRIPE_PRICE_ANNUAL", ""),
		AppURL:        strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"), "/"),
	}
}

// LiveMode reports whether the secret key is a live key.
func (c Config) LiveMode() bool {
	return strings.HasPrefix(c.SecretKey, "sk_live_")
}

// Validate checks the settings needed to talk to Stripe. Production requires
// a live key.
func (c Config) Validate(production bool) error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: STRIPE_SECRET_KEY is empty", ErrNotConfigured)
	}
	if production && !c.LiveMode() {
		return fmt.Errorf("%w: production requires a live secret key", ErrNotConfigured)
	}
	return nil
}

// PriceFor returns the price id for "monthly" or "annual". Anything else is
// monthly.
func (c Config) PriceFor(plan string) string {
	if plan == "annual" {
		return c.PriceAnnual
	}
	return c.PriceMonthly
}

package oauth

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/cache"
	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/stripe"
	gothfiber "github.com/shareed2k/goth_fiber"
)

// ProviderName is the goth provider used for Stripe Connect.
const ProviderName = "stripe"

// Setup registers the Stripe Connect provider and stores OAuth state in
// Redis (database 2). It is safe to call multiple times; providers will just
// be re-registered.
func Setup(cfg payments.Config) {
	SetupWithStorage(cfg, cache.Storage(2))
}

// SetupWithStorage is Setup with an explicit state storage. A nil storage
// keeps state in memory.
func SetupWithStorage(cfg payments.Config, storage fiber.Storage) {
	goth.UseProviders(
		stripe.New(cfg.ClientID, cfg.SecretKey, CallbackURL(), "read_write"),
	)

	gothfiber.SessionStore = session.New(session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     1 * time.Hour,
	})
}

// CallbackURL is where Stripe redirects after the founder authorizes.
func CallbackURL() string {
	if uri := strings.TrimSpace(env.GetEnv("STRIPE_REDIRECT_URI", "")); uri != "" {
		return uri
	}
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base + "/auth/" + ProviderName + "/callback"
}

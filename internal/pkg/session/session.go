package session

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/cache"
	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	CookieName = "candor_session"

	// DefaultTTL keeps a founder signed in for a year.
	DefaultTTL = 365 * 24 * time.Hour
)

var sessionStore *session.Store

// NewSessionStore creates the Redis backed session store (database 1, the
// cache uses DB 0).
func NewSessionStore() *session.Store {
	sessionStore = session.New(config(cache.Storage(1)))
	return sessionStore
}

// NewMemorySessionStore keeps sessions in process memory. Used by tests and
// local runs without Redis.
func NewMemorySessionStore() *session.Store {
	sessionStore = session.New(config(nil))
	return sessionStore
}

func config(storage fiber.Storage) session.Config {
	return session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     env.GetDuration("SESSION_TTL", DefaultTTL),
		KeyLookup:      "cookie:" + CookieName,
	}
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValues stores key-value pairs in the company's session
func SetSessionValues(c *fiber.Ctx, values map[string]string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	for k, v := range values {
		sess.Set(k, v)
	}
	return sess.Save()
}

// SetSessionValue stores a key-value pair in the company's session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	return SetSessionValues(c, map[string]string{key: value})
}

// GetSessionValue retrieves a value by key from the company's session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	value, _ := sess.Get(key).(string)
	return value
}

// SignIn binds the session to a company.
func SignIn(c *fiber.Ctx, companyID string) error {
	return SetSessionValue(c, usercontext.KeyCompanyID, companyID)
}

// SignOut destroys the session.
func SignOut(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

package env

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetBool parses key as a boolean, falling back to def when unset or invalid.
func GetBool(key string, def bool) bool {
	b, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return b
}

func GetInt(key string, def int) int {
	n, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return n
}

// GetDuration accepts Go duration strings such as "1s" or "500ms".
func GetDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return def
	}
	return d
}

// SetupEnvFile loads the first .env found. Deployments that inject the
// environment directly run without one.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/candor to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	Env = map[string]string{}
	log.Warn("[Env] No .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

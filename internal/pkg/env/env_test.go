package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedFile(t *testing.T) {
	Env = map[string]string{"CANDOR_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("CANDOR_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("CANDOR_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("CANDOR_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"WEEKLY_BATCH_SIZE":  "7",
		"WEEKLY_BATCH_DELAY": "250ms",
		"SCHEDULER_ENABLED":  "true",
		"BROKEN_INT":         "seven",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 7, GetInt("WEEKLY_BATCH_SIZE", 5))
	assert.Equal(t, 5, GetInt("BROKEN_INT", 5))
	assert.Equal(t, 250*time.Millisecond, GetDuration("WEEKLY_BATCH_DELAY", time.Second))
	assert.Equal(t, time.Second, GetDuration("UNSET_DELAY", time.Second))
	assert.True(t, GetBool("SCHEDULER_ENABLED", false))
	assert.False(t, GetBool("UNSET_FLAG", false))
}

func TestIsDev(t *testing.T) {
	Env = map[string]string{"APP_ENV": "dev"}
	t.Cleanup(func() { Env = nil })
	assert.True(t, IsDev())

	Env["APP_ENV"] = "prod"
	assert.False(t, IsDev())
}

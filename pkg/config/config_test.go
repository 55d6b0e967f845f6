package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 2, cfg.Scheduler.MaxPerDay)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, cfg.Scheduler.Days)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.LockTTL)
	assert.Equal(t, 10*time.Minute, cfg.Workload.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCHEDULER_MAX_PER_DAY", "3")
	t.Setenv("SCHEDULER_DAYS", "Monday, Wednesday")
	t.Setenv("SCHEDULER_SEED", "42")
	t.Setenv("SCHEDULER_LOCK_TTL", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scheduler.MaxPerDay)
	assert.Equal(t, []string{"Monday", "Wednesday"}, cfg.Scheduler.Days)
	assert.Equal(t, int64(42), cfg.Scheduler.Seed)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.LockTTL)
	assert.True(t, cfg.Redis.Enabled)
}

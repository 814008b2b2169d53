package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	require.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:8000", cfg.Planner.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Planner.Timeout)
	assert.True(t, cfg.Planner.Async)
	assert.Equal(t, 50, cfg.Planner.MaxSolutions)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORS.AllowedOrigins)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PLANNER_BASE_URL", "http://solver:9000/")
	v.Set("PLANNER_TIMEOUT", "not-a-duration")
	v.Set("TIMETABLE_MAX_SOLUTIONS", 0)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, "http://solver:9000", cfg.Planner.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Planner.Timeout)
	assert.Equal(t, 50, cfg.Planner.MaxSolutions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestSplitAndTrimEmpty(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
}

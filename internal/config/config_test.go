package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, int32(8199), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "github", cfg.Engine.SourceOfTruth)
	assert.Equal(t, 3, cfg.Engine.MaxRelayRetries)
	assert.Equal(t, time.Second, cfg.Engine.RetryBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Engine.EchoWindow)
	assert.Equal(t, 5, cfg.Engine.LoopDepthLimit)
	assert.Equal(t, 30, cfg.Retention.ProcessedEventDays)
}

func TestNewConfig_EnvOverride(t *testing.T) {
	t.Setenv("SOURCE_OF_TRUTH", "gitlab")
	t.Setenv("MAX_RELAY_RETRIES", "5")
	t.Setenv("ECHO_WINDOW", "90s")

	cfg := NewConfig()

	assert.Equal(t, "gitlab", cfg.Engine.SourceOfTruth)
	assert.Equal(t, 5, cfg.Engine.MaxRelayRetries)
	assert.Equal(t, 90*time.Second, cfg.Engine.EchoWindow)
}

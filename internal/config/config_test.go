package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "browser-monitor", cfg.Logger.ServiceName)
	assert.Empty(t, cfg.Logger.LogFile)

	assert.False(t, cfg.Browser.Headless, "default should open a visible window")
	assert.False(t, cfg.Browser.IgnoreTLSErrors)

	assert.Equal(t, 90*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Network.QuietPeriod)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("browser.headless", true)
	v.Set("browser.args", []string{"--window-size=1280,800"})
	v.Set("network.navigation_timeout", "2m")
	v.Set("network.quiet_period", "500ms")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"--window-size=1280,800"}, cfg.Browser.Args)
	assert.Equal(t, 2*time.Minute, cfg.Network.NavigationTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Network.QuietPeriod)
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "zero navigation timeout",
			mutate:  func(c *Config) { c.Network.NavigationTimeout = 0 },
			wantErr: "navigation_timeout",
		},
		{
			name:    "negative quiet period",
			mutate:  func(c *Config) { c.Network.QuietPeriod = -time.Second },
			wantErr: "quiet_period",
		},
		{
			name: "quiet period not shorter than navigation timeout",
			mutate: func(c *Config) {
				c.Network.NavigationTimeout = time.Second
				c.Network.QuietPeriod = time.Second
			},
			wantErr: "shorter than",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestNewConfigFromViper_RejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("network.quiet_period", "5m")

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/pump-core/internal/config"
	"github.com/rovshanmuradov/pump-core/internal/platform"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validBase(t *testing.T) (string, string) {
	t.Helper()
	authority := solana.NewWallet().PublicKey().String()
	treasury := solana.NewWallet().PublicKey().String()
	return authority, treasury
}

func TestLoadConfigDefaults(t *testing.T) {
	authority, treasury := validBase(t)
	path := writeConfig(t, `
platform:
  authority: "`+authority+`"
  treasury: "`+treasury+`"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(config.DefaultFeeRateBps), cfg.Platform.FeeRateBps)
	assert.Equal(t, 720*time.Hour, cfg.Platform.LockDuration)
	assert.Equal(t, config.DefaultTradeLimit, cfg.RateLimit.TradeLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.TradeWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.DefaultEventBuffer, cfg.EventBuffer)

	assert.Equal(t, authority, cfg.AuthorityKey().String())
	assert.Equal(t, treasury, cfg.TreasuryKey().String())

	// Пустая секция security — дефолтные лимиты платформы
	assert.Equal(t, platform.DefaultSecurityParams(), cfg.SecurityParams())
}

func TestLoadConfigSecurityOverride(t *testing.T) {
	authority, treasury := validBase(t)
	path := writeConfig(t, `
platform:
  authority: "`+authority+`"
  treasury: "`+treasury+`"
  fee_rate_bps: 250
security:
  max_trade_size: 1000000000
  max_wallet_bps: 300
  hourly_trade_limit: 10
  trade_cooldown: 5s
  anti_bot_enabled: true
rate_limit:
  trade_limit: 5
  trade_window: 30s
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(250), cfg.Platform.FeeRateBps)

	sec := cfg.SecurityParams()
	assert.Equal(t, uint64(1_000_000_000), sec.MaxTradeSize)
	assert.Equal(t, uint64(300), sec.MaxWalletBps)
	assert.Equal(t, uint32(10), sec.HourlyTradeLimit)
	assert.Equal(t, 5*time.Second, sec.TradeCooldown)
	assert.True(t, sec.AntiBotEnabled)

	assert.Equal(t, 5, cfg.RateLimit.TradeLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.TradeWindow)
}

func TestLoadConfigValidation(t *testing.T) {
	authority, treasury := validBase(t)

	cases := []struct {
		name    string
		content string
	}{
		{"missing authority", `
platform:
  treasury: "` + treasury + `"
`},
		{"bad authority", `
platform:
  authority: "garbage"
  treasury: "` + treasury + `"
`},
		{"missing treasury", `
platform:
  authority: "` + authority + `"
`},
		{"fee too high", `
platform:
  authority: "` + authority + `"
  treasury: "` + treasury + `"
  fee_rate_bps: 10001
`},
		{"bad security bps", `
platform:
  authority: "` + authority + `"
  treasury: "` + treasury + `"
security:
  max_wallet_bps: 20000
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

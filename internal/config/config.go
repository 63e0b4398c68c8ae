// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/pump-core/internal/platform"
)

// Config — конфигурация процесса движка.
type Config struct {
	Platform  PlatformConfig  `mapstructure:"platform"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`

	PostgresURL  string `mapstructure:"postgres_url"`
	LaunchesFile string `mapstructure:"launches_file"`
	ExportDir    string `mapstructure:"export_dir"`
	EventBuffer  int    `mapstructure:"event_buffer"`
	HistorySize  int    `mapstructure:"history_size"`
}

// PlatformConfig — административные параметры платформы.
type PlatformConfig struct {
	Authority     string `mapstructure:"authority"`
	Treasury      string `mapstructure:"treasury"`
	FeeRateBps    uint64 `mapstructure:"fee_rate_bps"`
	GraduationFee uint64 `mapstructure:"graduation_fee"`

	LockDuration time.Duration `mapstructure:"lp_lock_duration"`
	LockVesting  bool          `mapstructure:"lp_lock_vesting"`
}

// SecurityConfig — дефолтные лимиты безопасности для новых токенов.
type SecurityConfig struct {
	MaxTradeSize     uint64 `mapstructure:"max_trade_size"`
	MaxWalletBps     uint64 `mapstructure:"max_wallet_bps"`
	DailyVolumeLimit uint64 `mapstructure:"daily_volume_limit"`
	HourlyTradeLimit uint32 `mapstructure:"hourly_trade_limit"`

	WhaleTaxThreshold uint64 `mapstructure:"whale_tax_threshold"`
	WhaleTaxBps       uint64 `mapstructure:"whale_tax_bps"`
	EarlySellTaxBps   uint64 `mapstructure:"early_sell_tax_bps"`
	LiquidityTaxBps   uint64 `mapstructure:"liquidity_tax_bps"`

	MinHoldTime      time.Duration `mapstructure:"min_hold_time"`
	TradeCooldown    time.Duration `mapstructure:"trade_cooldown"`
	CreationCooldown time.Duration `mapstructure:"creation_cooldown"`

	CircuitBreakerBps uint64 `mapstructure:"circuit_breaker_bps"`
	MaxPriceImpactBps uint64 `mapstructure:"max_price_impact_bps"`

	AntiBotEnabled           bool `mapstructure:"anti_bot_enabled"`
	HoneypotDetection        bool `mapstructure:"honeypot_detection"`
	RequireKycForLargeTrades bool `mapstructure:"require_kyc_for_large_trades"`

	MinReputationToCreate uint32 `mapstructure:"min_reputation_to_create"`
	MaxTokensPerCreator   uint32 `mapstructure:"max_tokens_per_creator"`
}

// RateLimitConfig — настройки оракула частоты запросов.
type RateLimitConfig struct {
	TradeLimit  int           `mapstructure:"trade_limit"`
	TradeWindow time.Duration `mapstructure:"trade_window"`
}

// LogConfig — настройки логирования.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

const (
	DefaultFeeRateBps  = 100
	DefaultTradeLimit  = 30
	DefaultEventBuffer = 1024
	DefaultHistorySize = 1000
)

// LoadConfig читает конфигурацию из файла и окружения.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"platform.fee_rate_bps":     DefaultFeeRateBps,
		"platform.lp_lock_duration": "720h",
		"rate_limit.trade_limit":    DefaultTradeLimit,
		"rate_limit.trade_window":   "1m",
		"log.level":                 "info",
		"event_buffer":              DefaultEventBuffer,
		"history_size":              DefaultHistorySize,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PUMP_CORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.Platform.Authority == "" {
		return errors.New("missing platform.authority in configuration")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.Platform.Authority); err != nil {
		return errors.New("invalid platform.authority address")
	}
	if cfg.Platform.Treasury == "" {
		return errors.New("missing platform.treasury in configuration")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.Platform.Treasury); err != nil {
		return errors.New("invalid platform.treasury address")
	}
	if cfg.Platform.FeeRateBps > platform.MaxBps {
		return errors.New("platform.fee_rate_bps exceeds 10000")
	}
	if cfg.Platform.LockDuration <= 0 {
		return errors.New("invalid platform.lp_lock_duration")
	}
	if cfg.RateLimit.TradeLimit <= 0 {
		return errors.New("invalid rate_limit.trade_limit")
	}
	if cfg.RateLimit.TradeWindow <= 0 {
		return errors.New("invalid rate_limit.trade_window")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	sec := cfg.SecurityParams()
	return sec.Validate()
}

// AuthorityKey возвращает адрес администратора платформы.
func (c *Config) AuthorityKey() solana.PublicKey {
	key, _ := solana.PublicKeyFromBase58(c.Platform.Authority)
	return key
}

// TreasuryKey возвращает адрес казны.
func (c *Config) TreasuryKey() solana.PublicKey {
	key, _ := solana.PublicKeyFromBase58(c.Platform.Treasury)
	return key
}

// SecurityParams переводит секцию security в параметры платформы.
// Нулевая секция означает дефолтные лимиты.
func (c *Config) SecurityParams() platform.SecurityParams {
	if c.Security == (SecurityConfig{}) {
		return platform.DefaultSecurityParams()
	}
	return platform.SecurityParams{
		MaxTradeSize:             c.Security.MaxTradeSize,
		MaxWalletBps:             c.Security.MaxWalletBps,
		DailyVolumeLimit:         c.Security.DailyVolumeLimit,
		HourlyTradeLimit:         c.Security.HourlyTradeLimit,
		WhaleTaxThreshold:        c.Security.WhaleTaxThreshold,
		WhaleTaxBps:              c.Security.WhaleTaxBps,
		EarlySellTaxBps:          c.Security.EarlySellTaxBps,
		LiquidityTaxBps:          c.Security.LiquidityTaxBps,
		MinHoldTime:              c.Security.MinHoldTime,
		TradeCooldown:            c.Security.TradeCooldown,
		CreationCooldown:         c.Security.CreationCooldown,
		CircuitBreakerBps:        c.Security.CircuitBreakerBps,
		MaxPriceImpactBps:        c.Security.MaxPriceImpactBps,
		AntiBotEnabled:           c.Security.AntiBotEnabled,
		HoneypotDetection:        c.Security.HoneypotDetection,
		RequireKycForLargeTrades: c.Security.RequireKycForLargeTrades,
		MinReputationToCreate:    c.Security.MinReputationToCreate,
		MaxTokensPerCreator:      c.Security.MaxTokensPerCreator,
	}
}

/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * The threshold policy lives here and nowhere else: every validator call site
 * receives the same minimums, so pages can no longer disagree about them.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Default threshold policy, in cents. Overridable per environment but never per
// call site.
const (
	defaultMinDepositCents    = 5000   // $50.00
	defaultMinWithdrawalCents = 100000 // $1,000.00
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	StatusEventQueue     string `mapstructure:"STATUS_EVENT_QUEUE"`
	JWKSURL              string `mapstructure:"JWKS_URL"`
	PriceFeedBaseURL     string `mapstructure:"PRICE_FEED_BASE_URL"`
	PriceFeedAPIKey      string `mapstructure:"PRICE_FEED_API_KEY"`

	MinDepositCents    int64 `mapstructure:"MIN_DEPOSIT_CENTS"`
	MinWithdrawalCents int64 `mapstructure:"MIN_WITHDRAWAL_CENTS"`

	WithdrawalRateLimitPerHour int `mapstructure:"WITHDRAWAL_RATE_LIMIT_PER_HOUR"`

	DepositAddressBTC  string `mapstructure:"DEPOSIT_ADDRESS_BTC"`
	DepositAddressETH  string `mapstructure:"DEPOSIT_ADDRESS_ETH"`
	DepositAddressLTC  string `mapstructure:"DEPOSIT_ADDRESS_LTC"`
	DepositAddressUSDT string `mapstructure:"DEPOSIT_ADDRESS_USDT"`
}

// DepositAddresses returns the configured funding address book, keyed by asset
// code. Assets without a configured address are omitted.
func (c Config) DepositAddresses() map[string]string {
	addresses := map[string]string{
		"BTC":  strings.TrimSpace(c.DepositAddressBTC),
		"ETH":  strings.TrimSpace(c.DepositAddressETH),
		"LTC":  strings.TrimSpace(c.DepositAddressLTC),
		"USDT": strings.TrimSpace(c.DepositAddressUSDT),
	}
	for symbol, address := range addresses {
		if address == "" {
			delete(addresses, symbol)
		}
	}
	return addresses
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STATUS_EVENT_QUEUE", "ledger_service.status_updates")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "vertex:rate_limit")
	viper.SetDefault("MIN_DEPOSIT_CENTS", defaultMinDepositCents)
	viper.SetDefault("MIN_WITHDRAWAL_CENTS", defaultMinWithdrawalCents)
	viper.SetDefault("WITHDRAWAL_RATE_LIMIT_PER_HOUR", 10)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "LEDGER_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("STATUS_EVENT_QUEUE")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("PRICE_FEED_BASE_URL")
	_ = viper.BindEnv("PRICE_FEED_API_KEY")
	_ = viper.BindEnv("MIN_DEPOSIT_CENTS")
	_ = viper.BindEnv("MIN_DEPOSIT")
	_ = viper.BindEnv("MIN_WITHDRAWAL_CENTS")
	_ = viper.BindEnv("MIN_WITHDRAWAL")
	_ = viper.BindEnv("WITHDRAWAL_RATE_LIMIT_PER_HOUR")
	_ = viper.BindEnv("DEPOSIT_ADDRESS_BTC")
	_ = viper.BindEnv("DEPOSIT_ADDRESS_ETH")
	_ = viper.BindEnv("DEPOSIT_ADDRESS_LTC")
	_ = viper.BindEnv("DEPOSIT_ADDRESS_USDT")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "vertex:rate_limit"
	}

	// Allow specifying minimums in whole dollars via MIN_DEPOSIT / MIN_WITHDRAWAL.
	if cents, ok := dollarsEnvToCents("MIN_DEPOSIT"); ok {
		config.MinDepositCents = cents
	}
	if cents, ok := dollarsEnvToCents("MIN_WITHDRAWAL"); ok {
		config.MinWithdrawalCents = cents
	}

	if config.MinDepositCents <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive deposit minimum configured; restoring default\" cents=%d", config.MinDepositCents)
		config.MinDepositCents = defaultMinDepositCents
	}
	if config.MinWithdrawalCents <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive withdrawal minimum configured; restoring default\" cents=%d", config.MinWithdrawalCents)
		config.MinWithdrawalCents = defaultMinWithdrawalCents
	}
	// Zero disables the withdrawal budget entirely; only negatives are invalid.
	if config.WithdrawalRateLimitPerHour < 0 {
		log.Printf("level=warn component=config msg=\"negative withdrawal rate limit configured; disabling\" per_hour=%d", config.WithdrawalRateLimitPerHour)
		config.WithdrawalRateLimitPerHour = 0
	}

	return
}

func dollarsEnvToCents(key string) (int64, bool) {
	if !viper.IsSet(key) {
		return 0, false
	}
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("level=warn component=config msg=\"invalid dollar amount\" env=%s value=%q err=%v", key, raw, err)
		return 0, false
	}
	return int64(math.Round(value * 100)), true
}

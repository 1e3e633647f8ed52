// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RPCList              []string          `mapstructure:"rpc_list"`
	MeteoraAPIURL        string            `mapstructure:"meteora_api_url"`
	JupiterAPIURL        string            `mapstructure:"jupiter_api_url"`
	MinProfitPercent     float64           `mapstructure:"min_profit_percentage"`
	TradeCapital         float64           `mapstructure:"trade_capital"`
	ScanInterval         int               `mapstructure:"scan_interval"`
	BaseTokens           map[string]string `mapstructure:"base_tokens"`
	SlippageCapBps       uint64            `mapstructure:"slippage_cap_bps"`
	SlippageImpactFactor uint64            `mapstructure:"slippage_impact_factor"`
	DefaultDecimals      int               `mapstructure:"default_decimals"`
	QuoteSlippageBps     int               `mapstructure:"quote_slippage_bps"`
	PoolMaxAgeMinutes    int               `mapstructure:"pool_max_age_minutes"`
	PoolListingLimit     int               `mapstructure:"pool_listing_limit"`
	ReportListenAddr     string            `mapstructure:"report_listen_addr"`
	HistorySize          int               `mapstructure:"history_size"`
	ExportDir            string            `mapstructure:"export_dir"`
	ExportFormat         string            `mapstructure:"export_format"`
	PostgresURL          string            `mapstructure:"postgres_url"`
	LogFile              string            `mapstructure:"log_file"`
	DebugLogging         bool              `mapstructure:"debug_logging"`
}

const (
	DefaultMinProfitPercent = 0.1
	DefaultTradeCapital     = 0.1
	DefaultScanInterval     = 60
	DefaultSlippageCap      = 500
	DefaultImpactFactor     = 1000
	DefaultDecimals         = 6
	DefaultQuoteSlippage    = 50
	DefaultListingLimit     = 500
	DefaultHistorySize      = 1000
	DefaultReportAddr       = ":8080"
)

// Well-known base token mints.
const (
	SOLMint  = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"min_profit_percentage":  DefaultMinProfitPercent,
		"trade_capital":          DefaultTradeCapital,
		"scan_interval":          DefaultScanInterval,
		"slippage_cap_bps":       DefaultSlippageCap,
		"slippage_impact_factor": DefaultImpactFactor,
		"default_decimals":       DefaultDecimals,
		"quote_slippage_bps":     DefaultQuoteSlippage,
		"pool_listing_limit":     DefaultListingLimit,
		"history_size":           DefaultHistorySize,
		"report_listen_addr":     DefaultReportAddr,
		"export_format":          "csv",
		"base_tokens": map[string]string{
			"SOL":  SOLMint,
			"USDC": USDCMint,
		},
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURL(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.MeteoraAPIURL != "" {
		if err := validateURL(cfg.MeteoraAPIURL, "http"); err != nil {
			return errors.New("invalid Meteora API URL")
		}
	}
	if cfg.JupiterAPIURL != "" {
		if err := validateURL(cfg.JupiterAPIURL, "http"); err != nil {
			return errors.New("invalid Jupiter API URL")
		}
	}
	if len(cfg.BaseTokens) == 0 {
		return errors.New("base_tokens is empty")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.MinProfitPercent < 0 {
		return errors.New("invalid min_profit_percentage")
	}
	if cfg.TradeCapital <= 0 {
		return errors.New("invalid trade_capital")
	}
	if cfg.ScanInterval <= 0 {
		return errors.New("invalid scan_interval")
	}
	if cfg.SlippageCapBps > 10000 {
		return errors.New("invalid slippage_cap_bps")
	}
	if cfg.DefaultDecimals < 0 || cfg.DefaultDecimals > 18 {
		return errors.New("invalid default_decimals")
	}
	if cfg.QuoteSlippageBps < 0 || cfg.QuoteSlippageBps > 10000 {
		return errors.New("invalid quote_slippage_bps")
	}
	if cfg.PoolMaxAgeMinutes < 0 {
		return errors.New("invalid pool_max_age_minutes")
	}
	if cfg.PoolListingLimit < 0 {
		return errors.New("invalid pool_listing_limit")
	}
	if cfg.HistorySize < 0 {
		return errors.New("invalid history_size")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("ARB_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}

	envPostgres := v.GetString("POSTGRES_URL")
	if envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}

	return nil
}

// BaseMints inverts the configured base-token map into mint -> symbol.
func (c *Config) BaseMints() map[string]string {
	mints := make(map[string]string, len(c.BaseTokens))
	for symbol, mint := range c.BaseTokens {
		mints[mint] = symbol
	}
	return mints
}

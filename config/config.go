package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"streamledger/crypto"
	"streamledger/native/fees"
	"streamledger/native/points"
	"streamledger/native/subscription"
)

type Config struct {
	ListenAddress  string `toml:"ListenAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	Environment    string `toml:"Environment"`
	LogFile        string `toml:"LogFile"`
	FeedBuffer     int    `toml:"FeedBuffer"`

	Ledger    Ledger    `toml:"Ledger"`
	Auth      Auth      `toml:"Auth"`
	RateLimit RateLimit `toml:"RateLimit"`
	Telemetry Telemetry `toml:"Telemetry"`
}

// Load loads the configuration from the given path. A default file with
// freshly generated privileged accounts is written when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	// Zero is a meaningful fee and multiplier, so only absent keys take the
	// defaults.
	if !meta.IsDefined("Ledger", "PlatformFeePercent") {
		cfg.Ledger.PlatformFeePercent = fees.DefaultPlatformFeePercent
	}
	if !meta.IsDefined("Ledger", "SubscriptionBonusMultiplier") {
		cfg.Ledger.SubscriptionBonusMultiplier = subscription.DefaultBonusMultiplier
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./streamledger-data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.FeedBuffer <= 0 {
		cfg.FeedBuffer = 256
	}
	defaults := points.DefaultParams()
	if cfg.Ledger.EngagementPointRate == 0 {
		cfg.Ledger.EngagementPointRate = defaults.PointRate
	}
	if cfg.Ledger.PointsPerUnit == 0 {
		cfg.Ledger.PointsPerUnit = defaults.PointsPerUnit
	}
	if cfg.Ledger.PausedModules == nil {
		cfg.Ledger.PausedModules = []string{}
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 600
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	accounts := make([]string, 3)
	for i := range accounts {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		accounts[i] = key.PubKey().Address().String()
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress:  ":8080",
		MetricsAddress: ":9090",
		DataDir:        "./streamledger-data",
		Environment:    "local",
		Ledger: Ledger{
			PlatformFeePercent:          fees.DefaultPlatformFeePercent,
			SubscriptionBonusMultiplier: subscription.DefaultBonusMultiplier,
			Admin:                       accounts[0],
			PlatformAccount:             accounts[1],
			RewardsPool:                 accounts[2],
		},
		Auth: Auth{
			HMACSecret: hex.EncodeToString(secret),
			Issuer:     "streamledger",
		},
	}
	applyDefaults(cfg)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

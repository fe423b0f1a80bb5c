package config

// Ledger holds the economic parameters and privileged accounts of the ledger.
// Accounts are bech32 strings with the strm prefix. PlatformFeePercent and
// SubscriptionBonusMultiplier default to 5 and 2 when absent; an explicit 0
// charges no fee or awards no subscription bonus.
type Ledger struct {
	PlatformFeePercent          uint64   `toml:"PlatformFeePercent"`
	EngagementPointRate         uint64   `toml:"EngagementPointRate"`
	PointsPerUnit               uint64   `toml:"PointsPerUnit"`
	SubscriptionBonusMultiplier uint64   `toml:"SubscriptionBonusMultiplier"`
	Admin                       string   `toml:"Admin"`
	PlatformAccount             string   `toml:"PlatformAccount"`
	RewardsPool                 string   `toml:"RewardsPool"`
	PausedModules               []string `toml:"PausedModules"`
}

// Auth configures bearer token verification at the API edge. The token
// subject carries the caller's account.
type Auth struct {
	HMACSecret string `toml:"HMACSecret"`
	Issuer     string `toml:"Issuer"`
	Audience   string `toml:"Audience"`
}

// RateLimit bounds API requests per caller.
type RateLimit struct {
	RequestsPerMinute uint32 `toml:"RequestsPerMinute"`
	Burst             uint32 `toml:"Burst"`
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
	Headers  string `toml:"Headers"`

	// SampleRatio keeps this fraction of root spans; 0 keeps them all.
	SampleRatio float64 `toml:"SampleRatio"`
}

package config

import (
	"fmt"
	"strings"

	"streamledger/crypto"
	"streamledger/native/common"
	"streamledger/native/fees"
)

var knownModules = map[string]struct{}{
	common.ModuleCreator:      {},
	common.ModuleStream:       {},
	common.ModulePoints:       {},
	common.ModuleSettlement:   {},
	common.ModuleSubscription: {},
	common.ModuleChallenge:    {},
}

// Accounts holds the decoded privileged ledger accounts.
type Accounts struct {
	Admin           [20]byte
	PlatformAccount [20]byte
	RewardsPool     [20]byte
}

// Validate checks the configuration for values the ledger cannot run with.
func (c *Config) Validate() error {
	if err := fees.ValidatePercent(c.Ledger.PlatformFeePercent); err != nil {
		return fmt.Errorf("ledger: PlatformFeePercent: %w", err)
	}
	if c.Ledger.EngagementPointRate == 0 {
		return fmt.Errorf("ledger: EngagementPointRate must be positive")
	}
	if c.Ledger.PointsPerUnit == 0 {
		return fmt.Errorf("ledger: PointsPerUnit must be positive")
	}
	if _, err := c.Ledger.Accounts(); err != nil {
		return err
	}
	for _, module := range c.Ledger.PausedModules {
		if _, ok := knownModules[strings.ToLower(strings.TrimSpace(module))]; !ok {
			return fmt.Errorf("ledger: unknown module %q in PausedModules", module)
		}
	}
	if strings.TrimSpace(c.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth: HMACSecret required")
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		return fmt.Errorf("ratelimit: RequestsPerMinute must be positive")
	}
	return nil
}

// Accounts decodes the privileged accounts.
func (l Ledger) Accounts() (Accounts, error) {
	var out Accounts
	var err error
	if out.Admin, err = decodeAccount("Admin", l.Admin); err != nil {
		return Accounts{}, err
	}
	if out.PlatformAccount, err = decodeAccount("PlatformAccount", l.PlatformAccount); err != nil {
		return Accounts{}, err
	}
	if out.RewardsPool, err = decodeAccount("RewardsPool", l.RewardsPool); err != nil {
		return Accounts{}, err
	}
	return out, nil
}

func decodeAccount(field, value string) ([20]byte, error) {
	addr, err := crypto.ParseAccount(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, fmt.Errorf("ledger: %s: %w", field, err)
	}
	return addr, nil
}

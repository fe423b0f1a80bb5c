package fees

import (
	"fmt"
	"math/big"
	"strings"

	"streamledger/native/common"
)

const (
	// PercentDenominator is the divisor applied to the platform fee percent.
	PercentDenominator = 100
	// DefaultPlatformFeePercent is used until an administrator changes it.
	DefaultPlatformFeePercent uint64 = 5
)

// Settlement domains tracked in fee totals.
const (
	DomainTip          = "tip"
	DomainSubscription = "subscription"
)

var (
	ErrInvalidFeePercent = fmt.Errorf("fees: percent must be between 0 and %d: %w", PercentDenominator, common.ErrInvalidAmount)
	ErrInvalidGross      = fmt.Errorf("fees: gross amount must be positive: %w", common.ErrInvalidAmount)
)

// NormalizeDomain canonicalises domain identifiers for consistent lookups.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// ValidatePercent rejects percentages outside 0..100.
func ValidatePercent(percent uint64) error {
	if percent > PercentDenominator {
		return ErrInvalidFeePercent
	}
	return nil
}

// Split is the result of dividing a gross payment between the creator and
// the platform.
type Split struct {
	Gross   *big.Int
	Fee     *big.Int
	Net     *big.Int
	Percent uint64
}

// Apply computes fee = floor(gross*percent/100) and net = gross-fee. The
// truncated remainder stays with the creator, so Net+Fee always equals Gross.
func Apply(gross *big.Int, percent uint64) (Split, error) {
	if err := ValidatePercent(percent); err != nil {
		return Split{}, err
	}
	if gross == nil || gross.Sign() <= 0 {
		return Split{}, ErrInvalidGross
	}
	fee := new(big.Int).Mul(gross, new(big.Int).SetUint64(percent))
	fee.Quo(fee, big.NewInt(PercentDenominator))
	return Split{
		Gross:   new(big.Int).Set(gross),
		Fee:     fee,
		Net:     new(big.Int).Sub(gross, fee),
		Percent: percent,
	}, nil
}

// Totals aggregates fee accounting metrics per domain.
type Totals struct {
	Domain string
	Gross  *big.Int
	Fee    *big.Int
	Net    *big.Int
}

// NewTotals returns zeroed totals for the domain.
func NewTotals(domain string) *Totals {
	return &Totals{
		Domain: NormalizeDomain(domain),
		Gross:  big.NewInt(0),
		Fee:    big.NewInt(0),
		Net:    big.NewInt(0),
	}
}

// Add accumulates a settled split.
func (t *Totals) Add(split Split) {
	if t.Gross == nil {
		t.Gross = big.NewInt(0)
	}
	if t.Fee == nil {
		t.Fee = big.NewInt(0)
	}
	if t.Net == nil {
		t.Net = big.NewInt(0)
	}
	t.Gross = new(big.Int).Add(t.Gross, split.Gross)
	t.Fee = new(big.Int).Add(t.Fee, split.Fee)
	t.Net = new(big.Int).Add(t.Net, split.Net)
}

// Clone returns a copy of the totals structure with duplicated big.Int values.
func (t Totals) Clone() Totals {
	clone := Totals{Domain: t.Domain}
	if t.Gross != nil {
		clone.Gross = new(big.Int).Set(t.Gross)
	}
	if t.Fee != nil {
		clone.Fee = new(big.Int).Set(t.Fee)
	}
	if t.Net != nil {
		clone.Net = new(big.Int).Set(t.Net)
	}
	return clone
}

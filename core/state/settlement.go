package state

import (
	"math/big"

	"streamledger/native/fees"
)

type storedFeeTotals struct {
	Domain string
	Gross  *big.Int
	Fee    *big.Int
	Net    *big.Int
}

func feeTotalsKey(domain string) []byte {
	return prefixedKey(feeTotalsPrefix, []byte(fees.NormalizeDomain(domain)))
}

// PlatformFeePercent returns the stored fee percent. The boolean is false when
// no administrator has set one yet.
func (m *Manager) PlatformFeePercent() (uint64, bool, error) {
	var percent uint64
	ok, err := m.KVGet(platformFeePercentKey, &percent)
	if err != nil {
		return 0, false, err
	}
	return percent, ok, nil
}

// SetPlatformFeePercent stores the fee percent.
func (m *Manager) SetPlatformFeePercent(percent uint64) error {
	return m.KVPut(platformFeePercentKey, percent)
}

// FeeTotalsGet loads cumulative settlement totals for the domain.
func (m *Manager) FeeTotalsGet(domain string) (*fees.Totals, bool, error) {
	stored := new(storedFeeTotals)
	ok, err := m.KVGet(feeTotalsKey(domain), stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	totals := fees.NewTotals(stored.Domain)
	if stored.Gross != nil {
		totals.Gross.Set(stored.Gross)
	}
	if stored.Fee != nil {
		totals.Fee.Set(stored.Fee)
	}
	if stored.Net != nil {
		totals.Net.Set(stored.Net)
	}
	return totals, true, nil
}

// FeeTotalsPut persists cumulative settlement totals.
func (m *Manager) FeeTotalsPut(totals *fees.Totals) error {
	if totals == nil {
		return errNilRecord
	}
	clone := totals.Clone()
	stored := &storedFeeTotals{
		Domain: fees.NormalizeDomain(clone.Domain),
		Gross:  nonNil(clone.Gross),
		Fee:    nonNil(clone.Fee),
		Net:    nonNil(clone.Net),
	}
	return m.KVPut(feeTotalsKey(stored.Domain), stored)
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

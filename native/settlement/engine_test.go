package settlement

import (
	"errors"
	"math/big"
	"testing"

	"streamledger/native/bank"
	"streamledger/native/common"
	"streamledger/native/fees"
	"streamledger/native/points"
	"streamledger/native/stream"
)

type mockState struct {
	percent    uint64
	percentSet bool
	totals     map[string]*fees.Totals
	balances   map[[20]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		totals:   make(map[string]*fees.Totals),
		balances: make(map[[20]byte]*big.Int),
	}
}

func (m *mockState) PlatformFeePercent() (uint64, bool, error) {
	return m.percent, m.percentSet, nil
}

func (m *mockState) SetPlatformFeePercent(percent uint64) error {
	m.percent = percent
	m.percentSet = true
	return nil
}

func (m *mockState) FeeTotalsGet(domain string) (*fees.Totals, bool, error) {
	totals, ok := m.totals[domain]
	if !ok {
		return nil, false, nil
	}
	clone := totals.Clone()
	return &clone, true, nil
}

func (m *mockState) FeeTotalsPut(totals *fees.Totals) error {
	clone := totals.Clone()
	m.totals[totals.Domain] = &clone
	return nil
}

func (m *mockState) BalanceGet(addr [20]byte) (*big.Int, error) {
	if balance, ok := m.balances[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) BalancePut(addr [20]byte, amount *big.Int) error {
	m.balances[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) balance(addr [20]byte) int64 {
	balance, _ := m.BalanceGet(addr)
	return balance.Int64()
}

type fakeRegistry struct {
	earnings map[[20]byte]*big.Int
}

func (f *fakeRegistry) CreditEarnings(addr [20]byte, amount *big.Int) error {
	if f.earnings[addr] == nil {
		f.earnings[addr] = big.NewInt(0)
	}
	f.earnings[addr].Add(f.earnings[addr], amount)
	return nil
}

type fakeStreams map[uint64]*stream.Stream

func (f fakeStreams) Stream(id uint64) (*stream.Stream, error) {
	s, ok := f[id]
	if !ok {
		return nil, stream.ErrStreamNotFound
	}
	return s.Clone(), nil
}

type fakeEngagements struct {
	tipped map[[20]byte]*big.Int
}

func (f *fakeEngagements) AccrueTip(streamID uint64, tipper [20]byte, gross *big.Int) (*points.Engagement, error) {
	if f.tipped[tipper] == nil {
		f.tipped[tipper] = big.NewInt(0)
	}
	f.tipped[tipper].Add(f.tipped[tipper], gross)
	return &points.Engagement{StreamID: streamID, Viewer: tipper, TippedAmount: new(big.Int).Set(f.tipped[tipper])}, nil
}

var (
	creatorAddr  = [20]byte{0xC1}
	viewerAddr   = [20]byte{0xB2}
	platformAddr = [20]byte{0xF0}
)

type fixture struct {
	engine      *Engine
	state       *mockState
	registry    *fakeRegistry
	engagements *fakeEngagements
}

func newFixture() *fixture {
	state := newMockState()
	registry := &fakeRegistry{earnings: make(map[[20]byte]*big.Int)}
	engagements := &fakeEngagements{tipped: make(map[[20]byte]*big.Int)}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetBank(bank.NewLedger(state))
	engine.SetRegistry(registry)
	engine.SetStreams(fakeStreams{1: {ID: 1, Creator: creatorAddr, Active: false}})
	engine.SetEngagements(engagements)
	engine.SetPlatformAccount(platformAddr)
	return &fixture{engine: engine, state: state, registry: registry, engagements: engagements}
}

func TestTipSplitsBetweenCreatorAndPlatform(t *testing.T) {
	f := newFixture()
	f.state.balances[viewerAddr] = big.NewInt(1_000)

	receipt, err := f.engine.Tip(viewerAddr, 1, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if receipt.Split.Net.Int64() != 950 || receipt.Split.Fee.Int64() != 50 {
		t.Fatalf("unexpected split: %+v", receipt.Split)
	}
	if f.state.balance(creatorAddr) != 950 || f.state.balance(platformAddr) != 50 || f.state.balance(viewerAddr) != 0 {
		t.Fatalf("unexpected balances: creator=%d platform=%d viewer=%d",
			f.state.balance(creatorAddr), f.state.balance(platformAddr), f.state.balance(viewerAddr))
	}
	if f.registry.earnings[creatorAddr].Int64() != 950 {
		t.Fatalf("expected earnings 950, got %s", f.registry.earnings[creatorAddr])
	}
	if f.engagements.tipped[viewerAddr].Int64() != 1_000 {
		t.Fatalf("engagement should track gross tip, got %s", f.engagements.tipped[viewerAddr])
	}
	totals, err := f.engine.FeeTotals(fees.DomainTip)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Gross.Int64() != 1_000 || totals.Fee.Int64() != 50 || totals.Net.Int64() != 950 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestTipTransferFailureLeavesBalances(t *testing.T) {
	f := newFixture()
	f.state.balances[viewerAddr] = big.NewInt(10)

	_, err := f.engine.Tip(viewerAddr, 1, big.NewInt(1_000))
	if !errors.Is(err, common.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if f.state.balance(viewerAddr) != 10 || f.state.balance(creatorAddr) != 0 || f.state.balance(platformAddr) != 0 {
		t.Fatalf("balances moved on failure")
	}
	if len(f.registry.earnings) != 0 || len(f.engagements.tipped) != 0 {
		t.Fatalf("bookkeeping recorded on failure")
	}
}

func TestTipValidation(t *testing.T) {
	f := newFixture()
	if _, err := f.engine.Tip(viewerAddr, 1, big.NewInt(0)); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := f.engine.Tip(viewerAddr, 7, big.NewInt(5)); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected stream not found, got %v", err)
	}
}

func TestPlatformFeeUpdate(t *testing.T) {
	f := newFixture()
	percent, err := f.engine.PlatformFee()
	if err != nil || percent != fees.DefaultPlatformFeePercent {
		t.Fatalf("expected default fee, got %d (%v)", percent, err)
	}
	if err := f.engine.SetPlatformFee(101); !errors.Is(err, fees.ErrInvalidFeePercent) {
		t.Fatalf("expected invalid percent, got %v", err)
	}
	if err := f.engine.SetPlatformFee(10); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	f.state.balances[viewerAddr] = big.NewInt(200)
	receipt, err := f.engine.Settle(viewerAddr, creatorAddr, big.NewInt(200), fees.DomainSubscription)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if receipt.Split.Fee.Int64() != 20 || receipt.Split.Net.Int64() != 180 {
		t.Fatalf("unexpected split: %+v", receipt.Split)
	}
}

func TestSettleZeroFeeWithoutPlatformAccount(t *testing.T) {
	f := newFixture()
	f.engine.SetPlatformAccount([20]byte{})
	if err := f.engine.SetPlatformFee(0); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	f.state.balances[viewerAddr] = big.NewInt(30)
	if _, err := f.engine.Settle(viewerAddr, creatorAddr, big.NewInt(30), fees.DomainTip); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if f.state.balance(creatorAddr) != 30 {
		t.Fatalf("expected creator to receive full amount")
	}
}

package points

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"streamledger/core/events"
	"streamledger/native/bank"
	"streamledger/native/common"
	"streamledger/native/stream"
)

type mockState struct {
	engagements map[[28]byte]*Engagement
	accounts    map[[20]byte]*Account
	distributed uint64
	balances    map[[20]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		engagements: make(map[[28]byte]*Engagement),
		accounts:    make(map[[20]byte]*Account),
		balances:    make(map[[20]byte]*big.Int),
	}
}

func engagementKey(streamID uint64, viewer [20]byte) [28]byte {
	var key [28]byte
	for i := 0; i < 8; i++ {
		key[i] = byte(streamID >> (8 * i))
	}
	copy(key[8:], viewer[:])
	return key
}

func (m *mockState) EngagementGet(streamID uint64, viewer [20]byte) (*Engagement, bool, error) {
	engagement, ok := m.engagements[engagementKey(streamID, viewer)]
	if !ok {
		return nil, false, nil
	}
	return engagement.Clone(), true, nil
}

func (m *mockState) EngagementPut(engagement *Engagement) error {
	m.engagements[engagementKey(engagement.StreamID, engagement.Viewer)] = engagement.Clone()
	return nil
}

func (m *mockState) PointsAccountGet(addr [20]byte) (*Account, bool, error) {
	account, ok := m.accounts[addr]
	if !ok {
		return nil, false, nil
	}
	return account.Clone(), true, nil
}

func (m *mockState) PointsAccountPut(account *Account) error {
	m.accounts[account.Address] = account.Clone()
	return nil
}

func (m *mockState) PointsDistributed() (uint64, error) { return m.distributed, nil }

func (m *mockState) SetPointsDistributed(total uint64) error {
	m.distributed = total
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

type fakeStreams struct {
	live    map[uint64]bool
	viewers map[uint64]uint64
	points  map[uint64]uint64
}

func newFakeStreams(ids ...uint64) *fakeStreams {
	f := &fakeStreams{
		live:    make(map[uint64]bool),
		viewers: make(map[uint64]uint64),
		points:  make(map[uint64]uint64),
	}
	for _, id := range ids {
		f.live[id] = true
	}
	return f
}

func (f *fakeStreams) RecordViewer(id uint64, points uint64) (*stream.Stream, error) {
	live, ok := f.live[id]
	if !ok {
		return nil, stream.ErrStreamNotFound
	}
	if !live {
		return nil, stream.ErrStreamEnded
	}
	f.viewers[id]++
	f.points[id] += points
	return &stream.Stream{ID: id, Active: true, ViewerCount: f.viewers[id], TotalPointsAwarded: f.points[id]}, nil
}

type captureEmitter struct {
	types []string
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.types = append(c.types, evt.EventType())
}

var (
	viewer = [20]byte{0xAA}
	pool   = [20]byte{0xEE}
)

func newTestEngine(streams *fakeStreams) (*Engine, *mockState, *captureEmitter) {
	state := newMockState()
	emitter := &captureEmitter{}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetStreams(streams)
	engine.SetBank(bank.NewLedger(state))
	engine.SetRewardsPool(pool)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() uint64 { return 5_000 })
	return engine, state, emitter
}

func TestRecordEngagementAccumulates(t *testing.T) {
	streams := newFakeStreams(1)
	engine, state, emitter := newTestEngine(streams)

	awarded, err := engine.RecordEngagement(viewer, 1, 5)
	if err != nil {
		t.Fatalf("first engagement: %v", err)
	}
	if awarded != 50 {
		t.Fatalf("expected 50 points, got %d", awarded)
	}
	if awarded, err = engine.RecordEngagement(viewer, 1, 3); err != nil {
		t.Fatalf("second engagement: %v", err)
	}
	if awarded != 30 {
		t.Fatalf("expected 30 points, got %d", awarded)
	}

	engagement, err := engine.Engagement(1, viewer)
	if err != nil {
		t.Fatalf("engagement: %v", err)
	}
	if engagement.WatchMinutes != 8 || engagement.PointsEarned != 80 {
		t.Fatalf("unexpected engagement: %+v", engagement)
	}
	if engagement.LastInteraction != 5_000 {
		t.Fatalf("expected last interaction to use clock, got %d", engagement.LastInteraction)
	}
	account, err := engine.Balance(viewer)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if account.TotalEarned != 80 || account.Available != 80 || account.Redeemed != 0 {
		t.Fatalf("unexpected account: %+v", account)
	}
	if streams.points[1] != 80 || streams.viewers[1] != 2 {
		t.Fatalf("unexpected stream counters: points=%d viewers=%d", streams.points[1], streams.viewers[1])
	}
	if state.distributed != 80 {
		t.Fatalf("expected 80 distributed, got %d", state.distributed)
	}
	if len(emitter.types) != 4 {
		t.Fatalf("expected award and engagement events, got %v", emitter.types)
	}
}

func TestRecordEngagementRejectsEndedStream(t *testing.T) {
	streams := newFakeStreams(1)
	streams.live[1] = false
	engine, state, _ := newTestEngine(streams)

	if _, err := engine.RecordEngagement(viewer, 1, 5); !errors.Is(err, common.ErrInactive) {
		t.Fatalf("expected inactive error, got %v", err)
	}
	if _, err := engine.RecordEngagement(viewer, 9, 5); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if len(state.accounts) != 0 || state.distributed != 0 {
		t.Fatalf("state mutated on failure")
	}
}

func TestRecordEngagementRejectsZeroMinutes(t *testing.T) {
	engine, _, _ := newTestEngine(newFakeStreams(1))
	if _, err := engine.RecordEngagement(viewer, 1, 0); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestRecordEngagementOverflow(t *testing.T) {
	engine, _, _ := newTestEngine(newFakeStreams(1))
	if _, err := engine.RecordEngagement(viewer, 1, math.MaxUint64/2); !errors.Is(err, ErrPointsOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestRedeemPaysFromRewardsPool(t *testing.T) {
	engine, state, _ := newTestEngine(newFakeStreams(1))
	state.balances[pool] = big.NewInt(1_000)
	if _, err := engine.Award(viewer, 250, ReasonEngagement); err != nil {
		t.Fatalf("award: %v", err)
	}

	payout, err := engine.Redeem(viewer, 250)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if payout.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected truncated payout of 2, got %s", payout)
	}
	account, _ := engine.Balance(viewer)
	if account.Available != 0 || account.Redeemed != 250 || account.TotalEarned != 250 {
		t.Fatalf("unexpected account: %+v", account)
	}
	if state.balances[viewer].Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected viewer balance 2, got %s", state.balances[viewer])
	}
	if state.balances[pool].Cmp(big.NewInt(998)) != 0 {
		t.Fatalf("expected pool balance 998, got %s", state.balances[pool])
	}
}

func TestRedeemShortfallLeavesStateUnchanged(t *testing.T) {
	engine, state, _ := newTestEngine(newFakeStreams(1))
	state.balances[pool] = big.NewInt(1_000)
	if _, err := engine.Award(viewer, 50, ReasonEngagement); err != nil {
		t.Fatalf("award: %v", err)
	}

	if _, err := engine.Redeem(viewer, 100); !errors.Is(err, common.ErrInsufficientPoints) {
		t.Fatalf("expected insufficient points, got %v", err)
	}
	account, _ := engine.Balance(viewer)
	if account.Available != 50 || account.Redeemed != 0 {
		t.Fatalf("account mutated: %+v", account)
	}
	if _, ok := state.balances[viewer]; ok {
		t.Fatalf("viewer balance should not exist")
	}
}

func TestRedeemBelowOneUnit(t *testing.T) {
	engine, state, _ := newTestEngine(newFakeStreams(1))
	state.balances[pool] = big.NewInt(1_000)
	if _, err := engine.Award(viewer, 99, ReasonEngagement); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := engine.Redeem(viewer, 99); !errors.Is(err, ErrRedemptionTooSmall) {
		t.Fatalf("expected redemption too small, got %v", err)
	}
}

func TestRedeemTransferFailure(t *testing.T) {
	engine, _, _ := newTestEngine(newFakeStreams(1))
	if _, err := engine.Award(viewer, 500, ReasonEngagement); err != nil {
		t.Fatalf("award: %v", err)
	}
	_, err := engine.Redeem(viewer, 500)
	if !errors.Is(err, common.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("expected wrapped insufficient funds, got %v", err)
	}
	account, _ := engine.Balance(viewer)
	if account.Available != 500 {
		t.Fatalf("points deducted despite failed transfer: %+v", account)
	}
}

func TestAccrueTipAndBalanceLookup(t *testing.T) {
	engine, state, _ := newTestEngine(newFakeStreams(1))

	if _, err := engine.AccrueTip(1, viewer, big.NewInt(40)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	engagement, err := engine.AccrueTip(1, viewer, big.NewInt(60))
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if engagement.TippedAmount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected tipped 100, got %s", engagement.TippedAmount)
	}
	if engagement.WatchMinutes != 0 || engagement.PointsEarned != 0 {
		t.Fatalf("tips must not mint points: %+v", engagement)
	}

	stranger := [20]byte{0x01}
	account, err := engine.Balance(stranger)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if account.Available != 0 || account.Address != stranger {
		t.Fatalf("unexpected zero account: %+v", account)
	}
	if _, ok := state.accounts[stranger]; ok {
		t.Fatalf("balance lookup must not insert")
	}
	if _, err := engine.Engagement(2, viewer); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected engagement not found, got %v", err)
	}
}

func TestValuePoints(t *testing.T) {
	got, err := ValuePoints(big.NewInt(250), 2)
	if err != nil || got != 500 {
		t.Fatalf("expected 500, got %d (%v)", got, err)
	}
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	if _, err := ValuePoints(huge, 2); !errors.Is(err, ErrPointsOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

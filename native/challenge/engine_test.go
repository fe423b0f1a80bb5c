package challenge

import (
	"errors"
	"math/big"
	"testing"

	"streamledger/core/events"
	"streamledger/native/bank"
	"streamledger/native/common"
	"streamledger/native/stream"
)

type challengeKey struct {
	streamID uint64
	id       uint64
}

type contributionKey struct {
	streamID    uint64
	challengeID uint64
	contributor [20]byte
}

type mockState struct {
	challenges    map[challengeKey]*Challenge
	contributions map[contributionKey]*Contribution
	balances      map[[20]byte]*big.Int
	sequence      uint64
}

func newMockState() *mockState {
	return &mockState{
		challenges:    make(map[challengeKey]*Challenge),
		contributions: make(map[contributionKey]*Contribution),
		balances:      make(map[[20]byte]*big.Int),
	}
}

func (m *mockState) ChallengeGet(streamID, id uint64) (*Challenge, bool, error) {
	challenge, ok := m.challenges[challengeKey{streamID, id}]
	if !ok {
		return nil, false, nil
	}
	return challenge.Clone(), true, nil
}

func (m *mockState) ChallengePut(challenge *Challenge) error {
	m.challenges[challengeKey{challenge.StreamID, challenge.ID}] = challenge.Clone()
	return nil
}

func (m *mockState) ContributionGet(streamID, challengeID uint64, contributor [20]byte) (*Contribution, bool, error) {
	contribution, ok := m.contributions[contributionKey{streamID, challengeID, contributor}]
	if !ok {
		return nil, false, nil
	}
	return contribution.Clone(), true, nil
}

func (m *mockState) ContributionPut(contribution *Contribution) error {
	key := contributionKey{contribution.StreamID, contribution.ChallengeID, contribution.Contributor}
	m.contributions[key] = contribution.Clone()
	return nil
}

func (m *mockState) NextSequence(string) (uint64, error) {
	m.sequence++
	return m.sequence, nil
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

type fakeStreams map[uint64]*stream.Stream

func (f fakeStreams) Stream(id uint64) (*stream.Stream, error) {
	s, ok := f[id]
	if !ok {
		return nil, stream.ErrStreamNotFound
	}
	return s.Clone(), nil
}

type captureEmitter struct {
	types []string
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.types = append(c.types, evt.EventType())
}

var (
	owner  = [20]byte{0x01}
	backer = [20]byte{0x02}
	friend = [20]byte{0x03}
)

type fixture struct {
	engine  *Engine
	state   *mockState
	emitter *captureEmitter
	now     uint64
}

func newFixture() *fixture {
	f := &fixture{state: newMockState(), emitter: &captureEmitter{}, now: 100}
	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetStreams(fakeStreams{7: {ID: 7, Creator: owner, Active: true}})
	f.engine.SetBank(bank.NewLedger(f.state))
	f.engine.SetEmitter(f.emitter)
	f.engine.SetNowFunc(func() uint64 { return f.now })
	return f
}

func TestCreateRequiresOwnership(t *testing.T) {
	f := newFixture()
	if _, err := f.engine.Create(backer, 7, "Goal", "", big.NewInt(100), 200); !errors.Is(err, common.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
	if _, err := f.engine.Create(owner, 8, "Goal", "", big.NewInt(100), 200); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected stream not found, got %v", err)
	}
	if _, err := f.engine.Create(owner, 7, "Goal", "", big.NewInt(0), 200); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("expected invalid goal, got %v", err)
	}
	if _, err := f.engine.Create(owner, 7, "Goal", "", big.NewInt(100), 100); !errors.Is(err, common.ErrInvalidDuration) {
		t.Fatalf("expected invalid expiry, got %v", err)
	}
	challenge, err := f.engine.Create(owner, 7, "Goal", "new camera", big.NewInt(100), 200)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if challenge.ID != 1 || challenge.Current.Sign() != 0 || challenge.Completed {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
}

func TestContributeCompletesOnce(t *testing.T) {
	f := newFixture()
	f.state.balances[backer] = big.NewInt(500)
	f.state.balances[friend] = big.NewInt(500)
	challenge, err := f.engine.Create(owner, 7, "Goal", "", big.NewInt(100), 200)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.engine.Contribute(backer, 7, challenge.ID, big.NewInt(60))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if updated.Completed {
		t.Fatalf("challenge completed early")
	}
	f.now = 150
	if updated, err = f.engine.Contribute(friend, 7, challenge.ID, big.NewInt(40)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !updated.Completed || updated.Current.Int64() != 100 {
		t.Fatalf("expected completion at goal, got %+v", updated)
	}
	if updated, err = f.engine.Contribute(backer, 7, challenge.ID, big.NewInt(15)); err != nil {
		t.Fatalf("contribute after completion: %v", err)
	}
	if !updated.Completed || updated.Current.Int64() != 115 {
		t.Fatalf("unexpected challenge: %+v", updated)
	}

	contribution, err := f.engine.Contribution(7, challenge.ID, backer)
	if err != nil {
		t.Fatalf("contribution: %v", err)
	}
	if contribution.Amount.Int64() != 75 || contribution.ContributedAt != 150 {
		t.Fatalf("unexpected contribution: %+v", contribution)
	}
	if f.state.balances[owner].Int64() != 115 {
		t.Fatalf("expected creator to receive 115, got %s", f.state.balances[owner])
	}
	completed := 0
	for _, typ := range f.emitter.types {
		if typ == EventTypeChallengeCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected one completion event, got %d", completed)
	}
}

func TestContributeAfterExpiry(t *testing.T) {
	f := newFixture()
	f.state.balances[backer] = big.NewInt(500)
	challenge, _ := f.engine.Create(owner, 7, "Goal", "", big.NewInt(100), 200)
	f.now = 200
	if _, err := f.engine.Contribute(backer, 7, challenge.ID, big.NewInt(10)); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if f.state.balances[backer].Int64() != 500 {
		t.Fatalf("funds moved after expiry")
	}
}

func TestContributeTransferFailure(t *testing.T) {
	f := newFixture()
	challenge, _ := f.engine.Create(owner, 7, "Goal", "", big.NewInt(100), 200)
	if _, err := f.engine.Contribute(backer, 7, challenge.ID, big.NewInt(10)); !errors.Is(err, common.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	stored, _ := f.engine.Challenge(7, challenge.ID)
	if stored.Current.Sign() != 0 {
		t.Fatalf("challenge credited without transfer")
	}
	if _, err := f.engine.Contribution(7, challenge.ID, backer); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("contribution recorded without transfer: %v", err)
	}
	if _, err := f.engine.Contribute(backer, 7, 99, big.NewInt(10)); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected missing challenge, got %v", err)
	}
}

package challenge

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"streamledger/core/events"
	"streamledger/core/types"
	"streamledger/crypto"
	"streamledger/native/bank"
	"streamledger/native/common"
	"streamledger/native/stream"
)

// SequenceName identifies the global challenge id counter.
const SequenceName = "challenge"

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

var (
	errNilState          = errors.New("challenge engine: state not configured")
	errMissingDependency = errors.New("challenge engine: dependencies not configured")

	ErrInvalidGoal          = fmt.Errorf("challenge: goal must be positive: %w", common.ErrInvalidAmount)
	ErrInvalidAmount        = fmt.Errorf("challenge: %w", common.ErrInvalidAmount)
	ErrInvalidExpiry        = fmt.Errorf("challenge: expiry must be in the future: %w", common.ErrInvalidDuration)
	ErrChallengeNotFound    = fmt.Errorf("challenge: %w", common.ErrNotFound)
	ErrContributionNotFound = fmt.Errorf("challenge: contribution %w", common.ErrNotFound)
	ErrChallengeExpired     = fmt.Errorf("challenge: expired: %w", common.ErrInactive)
)

// Streams resolves stream ownership.
type Streams interface {
	Stream(id uint64) (*stream.Stream, error)
}

type engineState interface {
	ChallengeGet(streamID, id uint64) (*Challenge, bool, error)
	ChallengePut(challenge *Challenge) error
	ContributionGet(streamID, challengeID uint64, contributor [20]byte) (*Contribution, bool, error)
	ContributionPut(contribution *Contribution) error
	NextSequence(name string) (uint64, error)
}

// Engine manages stream-scoped crowdfunding goals. Contributions go to the
// creator in full; no platform fee applies.
type Engine struct {
	state   engineState
	streams Streams
	bank    bank.Transferer
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine constructs a challenge engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetStreams configures stream lookups.
func (e *Engine) SetStreams(streams Streams) { e.streams = streams }

// SetBank configures the value transfer primitive.
func (e *Engine) SetBank(transferer bank.Transferer) { e.bank = transferer }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

// Create opens a challenge on a stream owned by the caller. Ended streams may
// still carry challenges.
func (e *Engine) Create(caller [20]byte, streamID uint64, title, description string, goal *big.Int, expiresAt uint64) (*Challenge, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.streams == nil {
		return nil, errMissingDependency
	}
	target, err := e.streams.Stream(streamID)
	if err != nil {
		return nil, err
	}
	if target.Creator != caller {
		return nil, stream.ErrNotStreamOwner
	}
	cleanTitle, err := common.Text("title", title, 1, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	cleanDescription, err := common.Text("description", description, 0, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}
	if goal == nil || goal.Sign() <= 0 {
		return nil, ErrInvalidGoal
	}
	if expiresAt <= e.now() {
		return nil, ErrInvalidExpiry
	}
	id, err := e.state.NextSequence(SequenceName)
	if err != nil {
		return nil, err
	}
	challenge := &Challenge{
		StreamID:    streamID,
		ID:          id,
		Creator:     caller,
		Title:       cleanTitle,
		Description: cleanDescription,
		Goal:        new(big.Int).Set(goal),
		Current:     big.NewInt(0),
		ExpiresAt:   expiresAt,
	}
	if err := e.state.ChallengePut(challenge); err != nil {
		return nil, err
	}
	e.emit(ChallengeCreatedEvent(streamID, id, crypto.FormatAccount(caller), challenge.Goal.String(), expiresAt))
	return challenge.Clone(), nil
}

// Contribute moves amount from the caller to the challenge creator and
// accumulates it. Completed never reverts once the goal is reached;
// contributions after completion are still accepted until expiry.
func (e *Engine) Contribute(caller [20]byte, streamID, challengeID uint64, amount *big.Int) (*Challenge, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.bank == nil {
		return nil, errMissingDependency
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	challenge, err := e.load(streamID, challengeID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now >= challenge.ExpiresAt {
		return nil, ErrChallengeExpired
	}
	if err := e.bank.Transfer(bank.Leg{From: caller, To: challenge.Creator, Amount: amount}); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransferFailed, err)
	}
	challenge.Current = new(big.Int).Add(challenge.Current, amount)
	reached := !challenge.Completed && challenge.Current.Cmp(challenge.Goal) >= 0
	if reached {
		challenge.Completed = true
	}
	if err := e.state.ChallengePut(challenge); err != nil {
		return nil, err
	}
	contribution, ok, err := e.state.ContributionGet(streamID, challengeID, caller)
	if err != nil {
		return nil, err
	}
	if !ok || contribution == nil {
		contribution = &Contribution{StreamID: streamID, ChallengeID: challengeID, Contributor: caller, Amount: big.NewInt(0)}
	}
	contribution.Amount = new(big.Int).Add(copyAmount(contribution.Amount), amount)
	contribution.ContributedAt = now
	if err := e.state.ContributionPut(contribution); err != nil {
		return nil, err
	}
	current := challenge.Current.String()
	e.emit(ChallengeFundedEvent(streamID, challengeID, crypto.FormatAccount(caller), amount.String(), current))
	if reached {
		e.emit(ChallengeCompletedEvent(streamID, challengeID, current))
	}
	return challenge.Clone(), nil
}

// Challenge returns the challenge keyed by (streamID, id).
func (e *Engine) Challenge(streamID, id uint64) (*Challenge, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	challenge, err := e.load(streamID, id)
	if err != nil {
		return nil, err
	}
	return challenge.Clone(), nil
}

// Contribution returns the accumulated contribution of one account.
func (e *Engine) Contribution(streamID, challengeID uint64, contributor [20]byte) (*Contribution, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	contribution, ok, err := e.state.ContributionGet(streamID, challengeID, contributor)
	if err != nil {
		return nil, err
	}
	if !ok || contribution == nil {
		return nil, ErrContributionNotFound
	}
	return contribution.Clone(), nil
}

func (e *Engine) load(streamID, id uint64) (*Challenge, error) {
	challenge, ok, err := e.state.ChallengeGet(streamID, id)
	if err != nil {
		return nil, err
	}
	if !ok || challenge == nil {
		return nil, ErrChallengeNotFound
	}
	if challenge.Current == nil {
		challenge.Current = big.NewInt(0)
	}
	if challenge.Goal == nil {
		challenge.Goal = big.NewInt(0)
	}
	return challenge, nil
}

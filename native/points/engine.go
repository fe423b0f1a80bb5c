package points

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

// Award reasons attached to points events.
const (
	ReasonEngagement   = "engagement"
	ReasonSubscription = "subscription"
)

var (
	errNilState           = errors.New("points engine: state not configured")
	errNilStreams         = errors.New("points engine: stream manager not configured")
	errNilBank            = errors.New("points engine: transfer primitive not configured")
	errRewardsPoolNotSet  = errors.New("points engine: rewards pool not configured")
	errInvalidPointParams = errors.New("points engine: rates must be positive")

	ErrInvalidAmount      = fmt.Errorf("points: %w", common.ErrInvalidAmount)
	ErrPointsOverflow     = fmt.Errorf("points: arithmetic overflow: %w", common.ErrInvalidAmount)
	ErrInsufficientPoints = fmt.Errorf("points: %w", common.ErrInsufficientPoints)
	ErrRedemptionTooSmall = fmt.Errorf("points: redemption below one unit: %w", common.ErrInvalidAmount)
	ErrEngagementNotFound = fmt.Errorf("points: engagement %w", common.ErrNotFound)
)

// Streams is the subset of the stream lifecycle manager used for activity
// checks and counters.
type Streams interface {
	RecordViewer(id uint64, points uint64) (*stream.Stream, error)
}

type engineState interface {
	EngagementGet(streamID uint64, viewer [20]byte) (*Engagement, bool, error)
	EngagementPut(engagement *Engagement) error
	PointsAccountGet(addr [20]byte) (*Account, bool, error)
	PointsAccountPut(account *Account) error
	PointsDistributed() (uint64, error)
	SetPointsDistributed(total uint64) error
}

// Engine is the engagement and points ledger. RecordEngagement and Award are
// the only paths that mint points.
type Engine struct {
	state       engineState
	streams     Streams
	bank        bank.Transferer
	params      Params
	rewardsPool [20]byte
	emitter     events.Emitter
	nowFn       func() uint64
}

// NewEngine constructs a points engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		params:  DefaultParams(),
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetStreams configures the stream lifecycle dependency.
func (e *Engine) SetStreams(streams Streams) { e.streams = streams }

// SetBank configures the value transfer primitive used for redemptions.
func (e *Engine) SetBank(transferer bank.Transferer) { e.bank = transferer }

// SetRewardsPool configures the platform account that funds redemptions.
func (e *Engine) SetRewardsPool(addr [20]byte) { e.rewardsPool = addr }

// SetParams overrides the conversion rates.
func (e *Engine) SetParams(params Params) error {
	if params.PointRate == 0 || params.PointsPerUnit == 0 {
		return errInvalidPointParams
	}
	e.params = params
	return nil
}

// Params returns the active conversion rates.
func (e *Engine) Params() Params { return e.params }

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

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// RecordEngagement converts watch minutes on a live stream into points for
// the caller. The stream counters, engagement record, points account and
// global distributed counter are updated together.
func (e *Engine) RecordEngagement(caller [20]byte, streamID uint64, watchMinutes uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.streams == nil {
		return 0, errNilStreams
	}
	if watchMinutes == 0 {
		return 0, ErrInvalidAmount
	}
	awarded, err := mulPoints(watchMinutes, e.params.PointRate)
	if err != nil {
		return 0, err
	}
	if _, err := e.streams.RecordViewer(streamID, awarded); err != nil {
		return 0, err
	}
	engagement, err := e.loadEngagement(streamID, caller)
	if err != nil {
		return 0, err
	}
	if engagement.WatchMinutes, err = addPoints(engagement.WatchMinutes, watchMinutes); err != nil {
		return 0, err
	}
	if engagement.PointsEarned, err = addPoints(engagement.PointsEarned, awarded); err != nil {
		return 0, err
	}
	engagement.LastInteraction = e.now()
	if err := e.state.EngagementPut(engagement); err != nil {
		return 0, err
	}
	if _, err := e.award(caller, awarded, ReasonEngagement); err != nil {
		return 0, err
	}
	e.emit(EngagementRecordedEvent(streamID, crypto.FormatAccount(caller), watchMinutes, awarded))
	return awarded, nil
}

// Award mints points to addr outside of watch-time accrual.
func (e *Engine) Award(addr [20]byte, amount uint64, reason string) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.award(addr, amount, reason)
}

func (e *Engine) award(addr [20]byte, amount uint64, reason string) (*Account, error) {
	account, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return account, nil
	}
	if account.TotalEarned, err = addPoints(account.TotalEarned, amount); err != nil {
		return nil, err
	}
	if account.Available, err = addPoints(account.Available, amount); err != nil {
		return nil, err
	}
	distributed, err := e.state.PointsDistributed()
	if err != nil {
		return nil, err
	}
	if distributed, err = addPoints(distributed, amount); err != nil {
		return nil, err
	}
	if err := e.state.PointsAccountPut(account); err != nil {
		return nil, err
	}
	if err := e.state.SetPointsDistributed(distributed); err != nil {
		return nil, err
	}
	e.emit(PointsAwardedEvent(crypto.FormatAccount(addr), amount, account.Available, reason))
	return account.Clone(), nil
}

// Redeem exchanges points for value paid from the rewards pool. The remainder
// below one unit is forfeited. Balances change only after the transfer
// succeeded.
func (e *Engine) Redeem(caller [20]byte, amount uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.bank == nil {
		return nil, errNilBank
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	account, err := e.loadAccount(caller)
	if err != nil {
		return nil, err
	}
	if account.Available < amount {
		return nil, ErrInsufficientPoints
	}
	payout := new(big.Int).SetUint64(amount / e.params.PointsPerUnit)
	if payout.Sign() == 0 {
		return nil, ErrRedemptionTooSmall
	}
	if isZeroAddress(e.rewardsPool) {
		return nil, errRewardsPoolNotSet
	}
	if err := e.bank.Transfer(bank.Leg{From: e.rewardsPool, To: caller, Amount: payout}); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransferFailed, err)
	}
	account.Redeemed += amount
	account.Available -= amount
	if err := e.state.PointsAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(PointsRedeemedEvent(crypto.FormatAccount(caller), amount, payout.String()))
	return payout, nil
}

// AccrueTip adds a gross tip to the tipper's engagement record for the stream.
func (e *Engine) AccrueTip(streamID uint64, tipper [20]byte, gross *big.Int) (*Engagement, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if gross == nil || gross.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	engagement, err := e.loadEngagement(streamID, tipper)
	if err != nil {
		return nil, err
	}
	engagement.TippedAmount = new(big.Int).Add(engagement.TippedAmount, gross)
	engagement.LastInteraction = e.now()
	if err := e.state.EngagementPut(engagement); err != nil {
		return nil, err
	}
	return engagement.Clone(), nil
}

// Engagement returns the record for (streamID, viewer).
func (e *Engine) Engagement(streamID uint64, viewer [20]byte) (*Engagement, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	engagement, ok, err := e.state.EngagementGet(streamID, viewer)
	if err != nil {
		return nil, err
	}
	if !ok || engagement == nil {
		return nil, ErrEngagementNotFound
	}
	return engagement.Clone(), nil
}

// Balance returns the points account for addr, or a zeroed record when the
// account has never earned points. Nothing is written.
func (e *Engine) Balance(addr [20]byte) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.loadAccount(addr)
}

// Distributed returns the total number of points ever minted.
func (e *Engine) Distributed() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.PointsDistributed()
}

func (e *Engine) loadAccount(addr [20]byte) (*Account, error) {
	account, ok, err := e.state.PointsAccountGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || account == nil {
		return &Account{Address: addr}, nil
	}
	return account, nil
}

func (e *Engine) loadEngagement(streamID uint64, viewer [20]byte) (*Engagement, error) {
	engagement, ok, err := e.state.EngagementGet(streamID, viewer)
	if err != nil {
		return nil, err
	}
	if !ok || engagement == nil {
		return &Engagement{StreamID: streamID, Viewer: viewer, TippedAmount: big.NewInt(0)}, nil
	}
	if engagement.TippedAmount == nil {
		engagement.TippedAmount = big.NewInt(0)
	}
	return engagement, nil
}

package subscription

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"streamledger/core/events"
	"streamledger/core/types"
	"streamledger/crypto"
	"streamledger/native/common"
	"streamledger/native/fees"
	"streamledger/native/points"
	"streamledger/native/settlement"
)

// SequenceName identifies the global tier id counter.
const SequenceName = "tier"

// DefaultBonusMultiplier is the number of points awarded per unit of price.
const DefaultBonusMultiplier uint64 = 2

const (
	MaxNameLength        = 50
	MaxDescriptionLength = 500
	MaxBenefitsLength    = 500
)

var (
	errNilState          = errors.New("subscription engine: state not configured")
	errMissingDependency = errors.New("subscription engine: dependencies not configured")

	ErrInvalidPrice        = fmt.Errorf("subscription: price must be positive: %w", common.ErrInvalidAmount)
	ErrInvalidDuration     = fmt.Errorf("subscription: duration must be positive: %w", common.ErrInvalidDuration)
	ErrTierNotFound        = fmt.Errorf("subscription: tier %w", common.ErrNotFound)
	ErrTierInactive        = fmt.Errorf("subscription: tier %w", common.ErrInactive)
	ErrSubscriptionMissing = fmt.Errorf("subscription: %w", common.ErrNotFound)
)

// Registry is the subset of the creator registry consulted by the engine.
type Registry interface {
	RequireActive(addr [20]byte) error
}

// Settler executes the fee-split payment for a subscription.
type Settler interface {
	Settle(payer, creator [20]byte, gross *big.Int, domain string) (*settlement.Receipt, error)
}

// Rewards mints the subscriber bonus.
type Rewards interface {
	Award(addr [20]byte, amount uint64, reason string) (*points.Account, error)
}

type engineState interface {
	TierGet(creator [20]byte, id uint64) (*Tier, bool, error)
	TierPut(tier *Tier) error
	SubscriptionGet(subscriber, creator [20]byte) (*Subscription, bool, error)
	SubscriptionPut(sub *Subscription) error
	NextSequence(name string) (uint64, error)
}

// Engine manages creator tiers and the subscriptions sold against them.
type Engine struct {
	state      engineState
	registry   Registry
	settler    Settler
	rewards    Rewards
	multiplier uint64
	emitter    events.Emitter
	nowFn      func() uint64
}

// NewEngine constructs a subscription engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		multiplier: DefaultBonusMultiplier,
		emitter:    events.NoopEmitter{},
		nowFn:      func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the creator registry.
func (e *Engine) SetRegistry(registry Registry) { e.registry = registry }

// SetSettler configures the payment settlement dependency.
func (e *Engine) SetSettler(settler Settler) { e.settler = settler }

// SetRewards configures the points ledger used for bonus points.
func (e *Engine) SetRewards(rewards Rewards) { e.rewards = rewards }

// SetBonusMultiplier overrides the bonus points awarded per unit of price.
func (e *Engine) SetBonusMultiplier(multiplier uint64) { e.multiplier = multiplier }

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

// CreateTier registers a new plan for the calling creator.
func (e *Engine) CreateTier(caller [20]byte, name, description string, price *big.Int, durationDays uint64, benefits string) (*Tier, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.registry == nil {
		return nil, errMissingDependency
	}
	if err := e.registry.RequireActive(caller); err != nil {
		return nil, err
	}
	cleanName, err := common.Text("name", name, 1, MaxNameLength)
	if err != nil {
		return nil, err
	}
	cleanDescription, err := common.Text("description", description, 0, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}
	cleanBenefits, err := common.Text("benefits", benefits, 0, MaxBenefitsLength)
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	// A tier whose bonus cannot be minted could never be sold.
	if _, err := points.ValuePoints(price, e.multiplier); err != nil {
		return nil, err
	}
	if durationDays == 0 {
		return nil, ErrInvalidDuration
	}
	if _, overflow := windowEnd(0, durationDays); overflow {
		return nil, ErrInvalidDuration
	}
	id, err := e.state.NextSequence(SequenceName)
	if err != nil {
		return nil, err
	}
	tier := &Tier{
		Creator:      caller,
		ID:           id,
		Name:         cleanName,
		Description:  cleanDescription,
		Price:        new(big.Int).Set(price),
		DurationDays: durationDays,
		Benefits:     cleanBenefits,
		Active:       true,
	}
	if err := e.state.TierPut(tier); err != nil {
		return nil, err
	}
	e.emit(TierCreatedEvent(crypto.FormatAccount(caller), id, tier.Price.String(), durationDays))
	return tier.Clone(), nil
}

// SetTierActive retires or reopens one of the caller's tiers. Tiers are keyed
// by creator, so another creator's tier id resolves to not found. Existing
// subscriptions are unaffected.
func (e *Engine) SetTierActive(caller [20]byte, tierID uint64, active bool) (*Tier, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tier, ok, err := e.state.TierGet(caller, tierID)
	if err != nil {
		return nil, err
	}
	if !ok || tier == nil {
		return nil, ErrTierNotFound
	}
	if tier.Active == active {
		return tier.Clone(), nil
	}
	tier.Active = active
	if err := e.state.TierPut(tier); err != nil {
		return nil, err
	}
	e.emit(TierStatusEvent(crypto.FormatAccount(caller), tierID, active))
	return tier.Clone(), nil
}

// Subscribe pays for the tier and replaces any subscription the caller holds
// with the creator. The window restarts at now rather than extending.
func (e *Engine) Subscribe(caller, creator [20]byte, tierID uint64) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.registry == nil || e.settler == nil || e.rewards == nil {
		return nil, errMissingDependency
	}
	if err := e.registry.RequireActive(creator); err != nil {
		return nil, err
	}
	tier, ok, err := e.state.TierGet(creator, tierID)
	if err != nil {
		return nil, err
	}
	if !ok || tier == nil {
		return nil, ErrTierNotFound
	}
	if !tier.Active {
		return nil, ErrTierInactive
	}
	now := e.now()
	endsAt, overflow := windowEnd(now, tier.DurationDays)
	if overflow {
		return nil, ErrInvalidDuration
	}
	bonus, err := points.ValuePoints(tier.Price, e.multiplier)
	if err != nil {
		return nil, err
	}
	receipt, err := e.settler.Settle(caller, creator, tier.Price, fees.DomainSubscription)
	if err != nil {
		return nil, err
	}
	sub := &Subscription{
		Subscriber: caller,
		Creator:    creator,
		TierID:     tier.ID,
		StartedAt:  now,
		EndsAt:     endsAt,
		AmountPaid: new(big.Int).Set(receipt.Split.Gross),
		Active:     true,
	}
	if err := e.state.SubscriptionPut(sub); err != nil {
		return nil, err
	}
	if _, err := e.rewards.Award(caller, bonus, points.ReasonSubscription); err != nil {
		return nil, err
	}
	e.emit(SubscribedEvent(crypto.FormatAccount(caller), crypto.FormatAccount(creator), tier.ID, endsAt, sub.AmountPaid.String(), bonus))
	return sub.Clone(), nil
}

// Tier returns the tier keyed by (creator, id).
func (e *Engine) Tier(creator [20]byte, id uint64) (*Tier, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tier, ok, err := e.state.TierGet(creator, id)
	if err != nil {
		return nil, err
	}
	if !ok || tier == nil {
		return nil, ErrTierNotFound
	}
	return tier.Clone(), nil
}

// Subscription returns the record for (subscriber, creator), expired or not.
func (e *Engine) Subscription(subscriber, creator [20]byte) (*Subscription, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sub, ok, err := e.state.SubscriptionGet(subscriber, creator)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrSubscriptionMissing
	}
	return sub.Clone(), nil
}

// IsSubscribed reports whether subscriber currently holds an unexpired
// subscription with creator.
func (e *Engine) IsSubscribed(subscriber, creator [20]byte) (bool, error) {
	sub, err := e.Subscription(subscriber, creator)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Current(e.now()), nil
}

func windowEnd(start, days uint64) (uint64, bool) {
	if days > (^uint64(0)-start)/SecondsPerDay {
		return 0, true
	}
	return start + days*SecondsPerDay, false
}

package settlement

import (
	"errors"
	"fmt"
	"math/big"

	"streamledger/core/events"
	"streamledger/core/types"
	"streamledger/crypto"
	"streamledger/native/bank"
	"streamledger/native/common"
	"streamledger/native/fees"
	"streamledger/native/points"
	"streamledger/native/stream"
)

var (
	errNilState              = errors.New("settlement engine: state not configured")
	errMissingDependency     = errors.New("settlement engine: dependencies not configured")
	errPlatformAccountNotSet = errors.New("settlement engine: platform account not configured")

	ErrInvalidAmount = fmt.Errorf("settlement: %w", common.ErrInvalidAmount)
)

// Registry credits settled earnings to creators.
type Registry interface {
	CreditEarnings(addr [20]byte, amount *big.Int) error
}

// Streams resolves stream ownership for tips.
type Streams interface {
	Stream(id uint64) (*stream.Stream, error)
}

// Engagements records gross tips against the tipper's engagement record.
type Engagements interface {
	AccrueTip(streamID uint64, tipper [20]byte, gross *big.Int) (*points.Engagement, error)
}

type engineState interface {
	PlatformFeePercent() (uint64, bool, error)
	SetPlatformFeePercent(percent uint64) error
	FeeTotalsGet(domain string) (*fees.Totals, bool, error)
	FeeTotalsPut(totals *fees.Totals) error
}

// Receipt describes a settled payment.
type Receipt struct {
	Domain  string
	Payer   [20]byte
	Creator [20]byte
	Split   fees.Split
}

// Engine executes fee-split payments. Both legs of a payment move in a single
// atomic transfer.
type Engine struct {
	state           engineState
	bank            bank.Transferer
	registry        Registry
	streams         Streams
	engagements     Engagements
	platformAccount [20]byte
	defaultPercent  uint64
	emitter         events.Emitter
}

// NewEngine constructs a settlement engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		defaultPercent: fees.DefaultPlatformFeePercent,
		emitter:        events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank configures the value transfer primitive.
func (e *Engine) SetBank(transferer bank.Transferer) { e.bank = transferer }

// SetRegistry configures the creator registry credited with earnings.
func (e *Engine) SetRegistry(registry Registry) { e.registry = registry }

// SetStreams configures stream lookups.
func (e *Engine) SetStreams(streams Streams) { e.streams = streams }

// SetEngagements configures the engagement ledger used for tip bookkeeping.
func (e *Engine) SetEngagements(engagements Engagements) { e.engagements = engagements }

// SetPlatformAccount configures the account that receives platform fees.
func (e *Engine) SetPlatformAccount(addr [20]byte) { e.platformAccount = addr }

// SetDefaultPercent configures the fee used until one is stored in state.
func (e *Engine) SetDefaultPercent(percent uint64) error {
	if err := fees.ValidatePercent(percent); err != nil {
		return err
	}
	e.defaultPercent = percent
	return nil
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// PlatformFee returns the current platform fee percent.
func (e *Engine) PlatformFee() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	percent, ok, err := e.state.PlatformFeePercent()
	if err != nil {
		return 0, err
	}
	if !ok {
		return e.defaultPercent, nil
	}
	return percent, nil
}

// SetPlatformFee stores a new platform fee percent.
func (e *Engine) SetPlatformFee(percent uint64) error {
	if err := fees.ValidatePercent(percent); err != nil {
		return err
	}
	previous, err := e.PlatformFee()
	if err != nil {
		return err
	}
	if err := e.state.SetPlatformFeePercent(percent); err != nil {
		return err
	}
	e.emit(PlatformFeeUpdatedEvent(previous, percent))
	return nil
}

// Settle splits gross between creator and platform, moves both legs in one
// transfer, and credits the creator's earnings with the net amount.
func (e *Engine) Settle(payer, creator [20]byte, gross *big.Int, domain string) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.bank == nil || e.registry == nil {
		return nil, errMissingDependency
	}
	percent, err := e.PlatformFee()
	if err != nil {
		return nil, err
	}
	split, err := fees.Apply(gross, percent)
	if err != nil {
		return nil, err
	}
	if split.Fee.Sign() > 0 && isZeroAddress(e.platformAccount) {
		return nil, errPlatformAccountNotSet
	}
	legs := []bank.Leg{
		{From: payer, To: creator, Amount: split.Net},
		{From: payer, To: e.platformAccount, Amount: split.Fee},
	}
	if err := e.bank.Transfer(legs...); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransferFailed, err)
	}
	if err := e.registry.CreditEarnings(creator, split.Net); err != nil {
		return nil, err
	}
	normalized := fees.NormalizeDomain(domain)
	totals, ok, err := e.state.FeeTotalsGet(normalized)
	if err != nil {
		return nil, err
	}
	if !ok || totals == nil {
		totals = fees.NewTotals(normalized)
	}
	totals.Add(split)
	if err := e.state.FeeTotalsPut(totals); err != nil {
		return nil, err
	}
	e.emit(PaymentSettledEvent(normalized, crypto.FormatAccount(payer), crypto.FormatAccount(creator),
		split.Gross.String(), split.Fee.String(), split.Net.String()))
	return &Receipt{Domain: normalized, Payer: payer, Creator: creator, Split: split}, nil
}

// Tip pays the owner of a stream. The stream may already have ended. The
// tipper's engagement record accumulates the gross amount.
func (e *Engine) Tip(caller [20]byte, streamID uint64, amount *big.Int) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.streams == nil || e.engagements == nil {
		return nil, errMissingDependency
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	target, err := e.streams.Stream(streamID)
	if err != nil {
		return nil, err
	}
	receipt, err := e.Settle(caller, target.Creator, amount, fees.DomainTip)
	if err != nil {
		return nil, err
	}
	if _, err := e.engagements.AccrueTip(streamID, caller, amount); err != nil {
		return nil, err
	}
	e.emit(TipReceivedEvent(streamID, crypto.FormatAccount(caller), crypto.FormatAccount(target.Creator), amount.String()))
	return receipt, nil
}

// FeeTotals returns cumulative settlement totals for the domain.
func (e *Engine) FeeTotals(domain string) (fees.Totals, error) {
	if e == nil || e.state == nil {
		return fees.Totals{}, errNilState
	}
	normalized := fees.NormalizeDomain(domain)
	totals, ok, err := e.state.FeeTotalsGet(normalized)
	if err != nil {
		return fees.Totals{}, err
	}
	if !ok || totals == nil {
		return *fees.NewTotals(normalized), nil
	}
	return totals.Clone(), nil
}

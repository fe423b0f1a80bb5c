package bank

import (
	"errors"
	"fmt"
	"math/big"

	"streamledger/core/events"
	"streamledger/core/types"
	"streamledger/crypto"
	"streamledger/native/common"
)

const (
	// EventTypeTransfer is emitted for every leg moved by the ledger.
	EventTypeTransfer = "bank.transfer"
	// EventTypeDeposit is emitted when value is credited from outside the ledger.
	EventTypeDeposit = "bank.deposit"
)

var (
	errNilState = errors.New("bank: state not configured")

	ErrInsufficientBalance = fmt.Errorf("bank: balance too low: %w", common.ErrInsufficientFunds)
	ErrInvalidAmount       = fmt.Errorf("bank: %w", common.ErrInvalidAmount)
)

// Leg moves Amount from one account to another.
type Leg struct {
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

// Transferer is the value transfer primitive. Implementations must apply
// every leg or none of them.
type Transferer interface {
	Transfer(legs ...Leg) error
}

type balanceState interface {
	BalanceGet(addr [20]byte) (*big.Int, error)
	BalancePut(addr [20]byte, amount *big.Int) error
}

// Ledger is a state-backed Transferer. Because balances live in the same
// journaled state as the rest of the ledger, a transfer is discarded together
// with any operation that fails after it.
type Ledger struct {
	state   balanceState
	emitter events.Emitter
}

// NewLedger constructs a balance ledger over the supplied state.
func NewLedger(state balanceState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used for transfer events.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || evt == nil || l.emitter == nil {
		return
	}
	l.emitter.Emit(events.Wrap(evt))
}

// Transfer validates every leg against running balances and only persists
// once all legs succeeded. Zero-amount legs are skipped.
func (l *Ledger) Transfer(legs ...Leg) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	working := make(map[[20]byte]*big.Int)
	order := make([][20]byte, 0, len(legs)*2)
	balance := func(addr [20]byte) (*big.Int, error) {
		if bal, ok := working[addr]; ok {
			return bal, nil
		}
		bal, err := l.state.BalanceGet(addr)
		if err != nil {
			return nil, err
		}
		if bal == nil {
			bal = big.NewInt(0)
		}
		bal = new(big.Int).Set(bal)
		working[addr] = bal
		order = append(order, addr)
		return bal, nil
	}
	applied := make([]Leg, 0, len(legs))
	for _, leg := range legs {
		if leg.Amount == nil || leg.Amount.Sign() == 0 {
			continue
		}
		if leg.Amount.Sign() < 0 {
			return ErrInvalidAmount
		}
		from, err := balance(leg.From)
		if err != nil {
			return err
		}
		if from.Cmp(leg.Amount) < 0 {
			return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, crypto.FormatAccount(leg.From), from, leg.Amount)
		}
		to, err := balance(leg.To)
		if err != nil {
			return err
		}
		from.Sub(from, leg.Amount)
		to.Add(to, leg.Amount)
		applied = append(applied, leg)
	}
	for _, addr := range order {
		if err := l.state.BalancePut(addr, working[addr]); err != nil {
			return err
		}
	}
	for _, leg := range applied {
		l.emit(TransferEvent(leg))
	}
	return nil
}

// Deposit credits value entering the ledger from outside, e.g. genesis
// allocations or operator funding.
func (l *Ledger) Deposit(addr [20]byte, amount *big.Int) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	current, err := l.state.BalanceGet(addr)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = big.NewInt(0)
	}
	next := new(big.Int).Add(current, amount)
	if err := l.state.BalancePut(addr, next); err != nil {
		return nil, err
	}
	l.emit(&types.Event{
		Type: EventTypeDeposit,
		Attributes: map[string]string{
			"account": crypto.FormatAccount(addr),
			"amount":  amount.String(),
			"balance": next.String(),
		},
	})
	return new(big.Int).Set(next), nil
}

// Balance returns the spendable balance of addr.
func (l *Ledger) Balance(addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	bal, err := l.state.BalanceGet(addr)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// TransferEvent returns the structured event payload for a transfer leg.
func TransferEvent(leg Leg) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from":   crypto.FormatAccount(leg.From),
			"to":     crypto.FormatAccount(leg.To),
			"amount": leg.Amount.String(),
		},
	}
}

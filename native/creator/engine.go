package creator

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"streamledger/core/events"
	"streamledger/core/types"
	"streamledger/crypto"
	"streamledger/native/common"
)

var (
	errNilState = errors.New("creator engine: state not configured")

	ErrAccountExists   = fmt.Errorf("creator: account %w", common.ErrAlreadyExists)
	ErrAccountNotFound = fmt.Errorf("creator: account %w", common.ErrNotFound)
	ErrAccountInactive = fmt.Errorf("creator: account %w", common.ErrInactive)
	ErrInvalidAmount   = fmt.Errorf("creator: %w", common.ErrInvalidAmount)
	ErrInvalidDuration = fmt.Errorf("creator: %w", common.ErrInvalidDuration)
)

const (
	MaxNameLength = 50
	MaxBioLength  = 500
)

type engineState interface {
	CreatorAccountGet(addr [20]byte) (*Account, bool, error)
	CreatorAccountPut(account *Account) error
}

// Engine implements the creator account registry.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine constructs a registry with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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

func sanitizeProfile(name, bio string) (string, string, error) {
	cleanName, err := common.Text("name", name, 1, MaxNameLength)
	if err != nil {
		return "", "", err
	}
	cleanBio, err := common.Text("bio", bio, 0, MaxBioLength)
	if err != nil {
		return "", "", err
	}
	return cleanName, cleanBio, nil
}

// Register creates a creator profile for the caller.
func (e *Engine) Register(caller [20]byte, name, bio string) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cleanName, cleanBio, err := sanitizeProfile(name, bio)
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.CreatorAccountGet(caller); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAccountExists
	}
	account := &Account{
		Address:       caller,
		Name:          cleanName,
		Bio:           cleanBio,
		RegisteredAt:  e.now(),
		TotalEarnings: big.NewInt(0),
		Active:        true,
	}
	if err := e.state.CreatorAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(AccountRegisteredEvent(crypto.FormatAccount(caller), account.Name, account.RegisteredAt))
	return account.Clone(), nil
}

// UpdateProfile replaces the caller's display name and bio.
func (e *Engine) UpdateProfile(caller [20]byte, name, bio string) (*Account, error) {
	cleanName, cleanBio, err := sanitizeProfile(name, bio)
	if err != nil {
		return nil, err
	}
	account, err := e.load(caller)
	if err != nil {
		return nil, err
	}
	account.Name = cleanName
	account.Bio = cleanBio
	if err := e.state.CreatorAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(AccountUpdatedEvent(crypto.FormatAccount(caller), account.Name))
	return account.Clone(), nil
}

// Deactivate marks the caller's profile inactive.
func (e *Engine) Deactivate(caller [20]byte) (*Account, error) {
	return e.setActive(caller, false)
}

// Reactivate restores a previously deactivated profile.
func (e *Engine) Reactivate(caller [20]byte) (*Account, error) {
	return e.setActive(caller, true)
}

func (e *Engine) setActive(caller [20]byte, active bool) (*Account, error) {
	account, err := e.load(caller)
	if err != nil {
		return nil, err
	}
	if account.Active == active {
		return account.Clone(), nil
	}
	account.Active = active
	if err := e.state.CreatorAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(AccountStatusEvent(crypto.FormatAccount(caller), active))
	return account.Clone(), nil
}

// CreditEarnings adds a settled net amount to the creator's cumulative earnings.
func (e *Engine) CreditEarnings(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	account, err := e.load(addr)
	if err != nil {
		return err
	}
	account.TotalEarnings = new(big.Int).Add(account.TotalEarnings, amount)
	return e.state.CreatorAccountPut(account)
}

// CreditStreamTime adds seconds of streaming to the creator's total.
func (e *Engine) CreditStreamTime(addr [20]byte, seconds uint64) error {
	account, err := e.load(addr)
	if err != nil {
		return err
	}
	total := account.TotalStreamTime + seconds
	if total < account.TotalStreamTime {
		return ErrInvalidDuration
	}
	account.TotalStreamTime = total
	return e.state.CreatorAccountPut(account)
}

// IsActive reports whether addr is a registered, active creator.
func (e *Engine) IsActive(addr [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	account, ok, err := e.state.CreatorAccountGet(addr)
	if err != nil {
		return false, err
	}
	return ok && account != nil && account.Active, nil
}

// RequireActive returns nil when addr is a registered, active creator.
func (e *Engine) RequireActive(addr [20]byte) error {
	account, err := e.load(addr)
	if err != nil {
		return err
	}
	if !account.Active {
		return ErrAccountInactive
	}
	return nil
}

// Account returns the creator profile without mutating state.
func (e *Engine) Account(addr [20]byte) (*Account, error) {
	account, err := e.load(addr)
	if err != nil {
		return nil, err
	}
	return account.Clone(), nil
}

func (e *Engine) load(addr [20]byte) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	account, ok, err := e.state.CreatorAccountGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || account == nil {
		return nil, ErrAccountNotFound
	}
	if account.TotalEarnings == nil {
		account.TotalEarnings = big.NewInt(0)
	}
	return account, nil
}

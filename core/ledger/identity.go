package ledger

import (
	"context"
	"fmt"
	"time"

	"streamledger/native/common"
)

// ErrNoCaller is returned when an operation cannot resolve the caller.
var ErrNoCaller = fmt.Errorf("ledger: caller identity missing: %w", common.ErrNotAuthorized)

// IdentityProvider resolves the authenticated caller of an operation.
type IdentityProvider interface {
	Caller(ctx context.Context) ([20]byte, error)
}

// TimeOracle supplies the timestamp used for an operation.
type TimeOracle interface {
	Now() uint64
}

type callerKey struct{}

// WithCaller returns a context carrying the authenticated caller.
func WithCaller(ctx context.Context, caller [20]byte) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext extracts the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) ([20]byte, bool) {
	if ctx == nil {
		return [20]byte{}, false
	}
	caller, ok := ctx.Value(callerKey{}).([20]byte)
	return caller, ok
}

// ContextIdentity reads the caller placed in the context by the transport
// layer after authentication.
type ContextIdentity struct{}

// Caller implements IdentityProvider.
func (ContextIdentity) Caller(ctx context.Context) ([20]byte, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return [20]byte{}, ErrNoCaller
	}
	var zero [20]byte
	if caller == zero {
		return [20]byte{}, ErrNoCaller
	}
	return caller, nil
}

// SystemClock reports the previous wall-clock second so that every timestamp
// handed out is already in the past.
type SystemClock struct{}

// Now implements TimeOracle.
func (SystemClock) Now() uint64 {
	now := time.Now().Unix() - 1
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// FixedClock is a settable TimeOracle for tests and replay tooling.
type FixedClock struct {
	At uint64
}

// Now implements TimeOracle.
func (c *FixedClock) Now() uint64 { return c.At }

// Advance moves the clock forward by seconds.
func (c *FixedClock) Advance(seconds uint64) { c.At += seconds }

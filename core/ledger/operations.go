package ledger

import (
	"context"
	"math/big"
	"strings"

	"streamledger/native/challenge"
	"streamledger/native/common"
	"streamledger/native/creator"
	"streamledger/native/settlement"
	"streamledger/native/stream"
	"streamledger/native/subscription"
)

// RegisterAccount creates a creator profile for the caller.
func (l *Ledger) RegisterAccount(ctx context.Context, name, bio string) (*creator.Account, error) {
	var out *creator.Account
	err := l.execute(ctx, "register_account", common.ModuleCreator, func(caller [20]byte) error {
		var err error
		out, err = l.creators.Register(caller, name, bio)
		return err
	})
	return out, err
}

// UpdateProfile replaces the caller's name and bio.
func (l *Ledger) UpdateProfile(ctx context.Context, name, bio string) (*creator.Account, error) {
	var out *creator.Account
	err := l.execute(ctx, "update_profile", common.ModuleCreator, func(caller [20]byte) error {
		var err error
		out, err = l.creators.UpdateProfile(caller, name, bio)
		return err
	})
	return out, err
}

// SetAccountActive deactivates or reactivates the caller's profile.
func (l *Ledger) SetAccountActive(ctx context.Context, active bool) (*creator.Account, error) {
	var out *creator.Account
	err := l.execute(ctx, "set_account_active", common.ModuleCreator, func(caller [20]byte) error {
		var err error
		if active {
			out, err = l.creators.Reactivate(caller)
		} else {
			out, err = l.creators.Deactivate(caller)
		}
		return err
	})
	return out, err
}

// StartStream opens a live stream owned by the caller.
func (l *Ledger) StartStream(ctx context.Context, title, description, mediaURI, category string) (*stream.Stream, error) {
	var out *stream.Stream
	err := l.execute(ctx, "start_stream", common.ModuleStream, func(caller [20]byte) error {
		var err error
		out, err = l.streams.Start(caller, title, description, mediaURI, category)
		return err
	})
	return out, err
}

// EndStream ends one of the caller's live streams.
func (l *Ledger) EndStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	var out *stream.Stream
	err := l.execute(ctx, "end_stream", common.ModuleStream, func(caller [20]byte) error {
		var err error
		out, err = l.streams.End(caller, streamID)
		return err
	})
	return out, err
}

// RecordEngagement credits the caller with points for watch time and returns
// the points awarded.
func (l *Ledger) RecordEngagement(ctx context.Context, streamID, watchMinutes uint64) (uint64, error) {
	var awarded uint64
	err := l.execute(ctx, "record_engagement", common.ModulePoints, func(caller [20]byte) error {
		var err error
		awarded, err = l.points.RecordEngagement(caller, streamID, watchMinutes)
		return err
	})
	return awarded, err
}

// RedeemPoints exchanges the caller's points for value and returns the payout.
func (l *Ledger) RedeemPoints(ctx context.Context, amount uint64) (*big.Int, error) {
	var payout *big.Int
	err := l.execute(ctx, "redeem_points", common.ModulePoints, func(caller [20]byte) error {
		var err error
		payout, err = l.points.Redeem(caller, amount)
		return err
	})
	return payout, err
}

// Tip pays amount to the owner of the stream, minus the platform fee.
func (l *Ledger) Tip(ctx context.Context, streamID uint64, amount *big.Int) (*settlement.Receipt, error) {
	var out *settlement.Receipt
	err := l.execute(ctx, "tip", common.ModuleSettlement, func(caller [20]byte) error {
		var err error
		out, err = l.settlement.Tip(caller, streamID, amount)
		return err
	})
	return out, err
}

// CreateTier adds a subscription plan for the calling creator.
func (l *Ledger) CreateTier(ctx context.Context, name, description string, price *big.Int, durationDays uint64, benefits string) (*subscription.Tier, error) {
	var out *subscription.Tier
	err := l.execute(ctx, "create_tier", common.ModuleSubscription, func(caller [20]byte) error {
		var err error
		out, err = l.subscriptions.CreateTier(caller, name, description, price, durationDays, benefits)
		return err
	})
	return out, err
}

// SetTierActive retires or reopens one of the caller's tiers.
func (l *Ledger) SetTierActive(ctx context.Context, tierID uint64, active bool) (*subscription.Tier, error) {
	var out *subscription.Tier
	err := l.execute(ctx, "set_tier_active", common.ModuleSubscription, func(caller [20]byte) error {
		var err error
		out, err = l.subscriptions.SetTierActive(caller, tierID, active)
		return err
	})
	return out, err
}

// Subscribe buys the creator's tier for the caller.
func (l *Ledger) Subscribe(ctx context.Context, creatorAddr [20]byte, tierID uint64) (*subscription.Subscription, error) {
	var out *subscription.Subscription
	err := l.execute(ctx, "subscribe", common.ModuleSubscription, func(caller [20]byte) error {
		var err error
		out, err = l.subscriptions.Subscribe(caller, creatorAddr, tierID)
		return err
	})
	return out, err
}

// CreateChallenge opens a funding goal on one of the caller's streams.
func (l *Ledger) CreateChallenge(ctx context.Context, streamID uint64, title, description string, goal *big.Int, expiresAt uint64) (*challenge.Challenge, error) {
	var out *challenge.Challenge
	err := l.execute(ctx, "create_challenge", common.ModuleChallenge, func(caller [20]byte) error {
		var err error
		out, err = l.challenges.Create(caller, streamID, title, description, goal, expiresAt)
		return err
	})
	return out, err
}

// Contribute funds a challenge from the caller's balance.
func (l *Ledger) Contribute(ctx context.Context, streamID, challengeID uint64, amount *big.Int) (*challenge.Challenge, error) {
	var out *challenge.Challenge
	err := l.execute(ctx, "contribute", common.ModuleChallenge, func(caller [20]byte) error {
		var err error
		out, err = l.challenges.Contribute(caller, streamID, challengeID, amount)
		return err
	})
	return out, err
}

// SetPlatformFee changes the platform fee percent. Administrator only.
func (l *Ledger) SetPlatformFee(ctx context.Context, percent uint64) error {
	return l.execute(ctx, "set_platform_fee", "", func(caller [20]byte) error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		return l.settlement.SetPlatformFee(percent)
	})
}

// Fund credits value to addr from outside the ledger and returns the new
// balance. Administrator only.
func (l *Ledger) Fund(ctx context.Context, addr [20]byte, amount *big.Int) (*big.Int, error) {
	var balance *big.Int
	err := l.execute(ctx, "fund", "", func(caller [20]byte) error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		var err error
		balance, err = l.bank.Deposit(addr, amount)
		return err
	})
	return balance, err
}

// SetModulePaused pauses or resumes a module. Administrator only. Modules
// paused through configuration stay paused.
func (l *Ledger) SetModulePaused(ctx context.Context, module string, paused bool) error {
	name := strings.ToLower(strings.TrimSpace(module))
	return l.execute(ctx, "set_module_paused", "", func(caller [20]byte) error {
		if err := l.requireAdmin(caller); err != nil {
			return err
		}
		if _, ok := modules[name]; !ok {
			return ErrUnknownModule
		}
		return l.state.SetModulePaused(name, paused)
	})
}

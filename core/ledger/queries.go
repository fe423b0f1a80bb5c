package ledger

import (
	"math/big"

	"streamledger/native/challenge"
	"streamledger/native/creator"
	"streamledger/native/fees"
	"streamledger/native/points"
	"streamledger/native/stream"
	"streamledger/native/subscription"
)

// Account looks up a creator profile.
func (l *Ledger) Account(addr [20]byte) (out *creator.Account, err error) {
	err = l.query(func() error {
		out, err = l.creators.Account(addr)
		return err
	})
	return out, err
}

// Stream looks up a stream by id.
func (l *Ledger) Stream(id uint64) (out *stream.Stream, err error) {
	err = l.query(func() error {
		out, err = l.streams.Stream(id)
		return err
	})
	return out, err
}

// Engagement looks up the engagement of viewer on a stream.
func (l *Ledger) Engagement(streamID uint64, viewer [20]byte) (out *points.Engagement, err error) {
	err = l.query(func() error {
		out, err = l.points.Engagement(streamID, viewer)
		return err
	})
	return out, err
}

// PointsBalance returns the points account of addr, zeroed when unknown.
func (l *Ledger) PointsBalance(addr [20]byte) (out *points.Account, err error) {
	err = l.query(func() error {
		out, err = l.points.Balance(addr)
		return err
	})
	return out, err
}

// PointsDistributed returns the total number of points ever minted.
func (l *Ledger) PointsDistributed() (out uint64, err error) {
	err = l.query(func() error {
		out, err = l.points.Distributed()
		return err
	})
	return out, err
}

// Tier looks up a tier by (creator, id).
func (l *Ledger) Tier(creatorAddr [20]byte, id uint64) (out *subscription.Tier, err error) {
	err = l.query(func() error {
		out, err = l.subscriptions.Tier(creatorAddr, id)
		return err
	})
	return out, err
}

// Subscription looks up the subscription of subscriber to creator.
func (l *Ledger) Subscription(subscriber, creatorAddr [20]byte) (out *subscription.Subscription, err error) {
	err = l.query(func() error {
		out, err = l.subscriptions.Subscription(subscriber, creatorAddr)
		return err
	})
	return out, err
}

// IsSubscribed reports whether subscriber holds an unexpired subscription.
func (l *Ledger) IsSubscribed(subscriber, creatorAddr [20]byte) (out bool, err error) {
	err = l.query(func() error {
		out, err = l.subscriptions.IsSubscribed(subscriber, creatorAddr)
		return err
	})
	return out, err
}

// Challenge looks up a challenge by (stream, id).
func (l *Ledger) Challenge(streamID, id uint64) (out *challenge.Challenge, err error) {
	err = l.query(func() error {
		out, err = l.challenges.Challenge(streamID, id)
		return err
	})
	return out, err
}

// Contribution looks up what contributor gave to a challenge.
func (l *Ledger) Contribution(streamID, challengeID uint64, contributor [20]byte) (out *challenge.Contribution, err error) {
	err = l.query(func() error {
		out, err = l.challenges.Contribution(streamID, challengeID, contributor)
		return err
	})
	return out, err
}

// Balance returns the value balance of addr.
func (l *Ledger) Balance(addr [20]byte) (out *big.Int, err error) {
	err = l.query(func() error {
		out, err = l.bank.Balance(addr)
		return err
	})
	return out, err
}

// PlatformFee returns the current platform fee percent.
func (l *Ledger) PlatformFee() (out uint64, err error) {
	err = l.query(func() error {
		out, err = l.settlement.PlatformFee()
		return err
	})
	return out, err
}

// FeeTotals returns cumulative settlement totals for a domain.
func (l *Ledger) FeeTotals(domain string) (out fees.Totals, err error) {
	err = l.query(func() error {
		out, err = l.settlement.FeeTotals(domain)
		return err
	})
	return out, err
}

// ModulePaused reports whether module currently rejects operations.
func (l *Ledger) ModulePaused(module string) (out bool, err error) {
	err = l.query(func() error {
		out = pauseView{static: l.paused, state: l.state}.IsPaused(module)
		return nil
	})
	return out, err
}

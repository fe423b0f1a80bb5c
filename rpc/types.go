package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"streamledger/crypto"
	"streamledger/native/challenge"
	"streamledger/native/creator"
	"streamledger/native/fees"
	"streamledger/native/points"
	"streamledger/native/settlement"
	"streamledger/native/stream"
	"streamledger/native/subscription"
)

// Amounts travel as base-10 strings and accounts as bech32 strings.

type AccountResult struct {
	Address         string `json:"address"`
	Name            string `json:"name"`
	Bio             string `json:"bio"`
	RegisteredAt    uint64 `json:"registeredAt"`
	TotalStreamTime uint64 `json:"totalStreamTime"`
	TotalEarnings   string `json:"totalEarnings"`
	Active          bool   `json:"active"`
}

type StreamResult struct {
	ID                 uint64 `json:"id"`
	Creator            string `json:"creator"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	MediaURI           string `json:"mediaUri"`
	Category           string `json:"category"`
	StartedAt          uint64 `json:"startedAt"`
	EndedAt            uint64 `json:"endedAt"`
	Active             bool   `json:"active"`
	ViewerCount        uint64 `json:"viewerCount"`
	TotalPointsAwarded uint64 `json:"totalPointsAwarded"`
}

type EngagementResult struct {
	StreamID        uint64 `json:"streamId"`
	Viewer          string `json:"viewer"`
	WatchMinutes    uint64 `json:"watchMinutes"`
	PointsEarned    uint64 `json:"pointsEarned"`
	LastInteraction uint64 `json:"lastInteraction"`
	TippedAmount    string `json:"tippedAmount"`
}

type PointsResult struct {
	Address     string `json:"address"`
	TotalEarned uint64 `json:"totalEarned"`
	Redeemed    uint64 `json:"redeemed"`
	Available   uint64 `json:"available"`
}

type ReceiptResult struct {
	Domain  string `json:"domain"`
	Payer   string `json:"payer"`
	Creator string `json:"creator"`
	Gross   string `json:"gross"`
	Fee     string `json:"fee"`
	Net     string `json:"net"`
	Percent uint64 `json:"feePercent"`
}

type FeeTotalsResult struct {
	Domain string `json:"domain"`
	Gross  string `json:"gross"`
	Fee    string `json:"fee"`
	Net    string `json:"net"`
}

type TierResult struct {
	Creator      string `json:"creator"`
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	DurationDays uint64 `json:"durationDays"`
	Benefits     string `json:"benefits"`
	Active       bool   `json:"active"`
}

type SubscriptionResult struct {
	Subscriber string `json:"subscriber"`
	Creator    string `json:"creator"`
	TierID     uint64 `json:"tierId"`
	StartedAt  uint64 `json:"startedAt"`
	EndsAt     uint64 `json:"endsAt"`
	AmountPaid string `json:"amountPaid"`
	Active     bool   `json:"active"`
}

type ChallengeResult struct {
	StreamID    uint64 `json:"streamId"`
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Goal        string `json:"goal"`
	Current     string `json:"current"`
	Completed   bool   `json:"completed"`
	ExpiresAt   uint64 `json:"expiresAt"`
}

type ContributionResult struct {
	StreamID      uint64 `json:"streamId"`
	ChallengeID   uint64 `json:"challengeId"`
	Contributor   string `json:"contributor"`
	Amount        string `json:"amount"`
	ContributedAt uint64 `json:"contributedAt"`
}

type BalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func formatAddress(addr [20]byte) string {
	return crypto.FormatAccount(addr)
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAccount(a *creator.Account) AccountResult {
	return AccountResult{
		Address:         formatAddress(a.Address),
		Name:            a.Name,
		Bio:             a.Bio,
		RegisteredAt:    a.RegisteredAt,
		TotalStreamTime: a.TotalStreamTime,
		TotalEarnings:   bigString(a.TotalEarnings),
		Active:          a.Active,
	}
}

func formatStream(s *stream.Stream) StreamResult {
	return StreamResult{
		ID:                 s.ID,
		Creator:            formatAddress(s.Creator),
		Title:              s.Title,
		Description:        s.Description,
		MediaURI:           s.MediaURI,
		Category:           s.Category,
		StartedAt:          s.StartedAt,
		EndedAt:            s.EndedAt,
		Active:             s.Active,
		ViewerCount:        s.ViewerCount,
		TotalPointsAwarded: s.TotalPointsAwarded,
	}
}

func formatEngagement(e *points.Engagement) EngagementResult {
	return EngagementResult{
		StreamID:        e.StreamID,
		Viewer:          formatAddress(e.Viewer),
		WatchMinutes:    e.WatchMinutes,
		PointsEarned:    e.PointsEarned,
		LastInteraction: e.LastInteraction,
		TippedAmount:    bigString(e.TippedAmount),
	}
}

func formatPoints(a *points.Account) PointsResult {
	return PointsResult{
		Address:     formatAddress(a.Address),
		TotalEarned: a.TotalEarned,
		Redeemed:    a.Redeemed,
		Available:   a.Available,
	}
}

func formatReceipt(r *settlement.Receipt) ReceiptResult {
	return ReceiptResult{
		Domain:  r.Domain,
		Payer:   formatAddress(r.Payer),
		Creator: formatAddress(r.Creator),
		Gross:   bigString(r.Split.Gross),
		Fee:     bigString(r.Split.Fee),
		Net:     bigString(r.Split.Net),
		Percent: r.Split.Percent,
	}
}

func formatFeeTotals(t fees.Totals) FeeTotalsResult {
	return FeeTotalsResult{
		Domain: t.Domain,
		Gross:  bigString(t.Gross),
		Fee:    bigString(t.Fee),
		Net:    bigString(t.Net),
	}
}

func formatTier(t *subscription.Tier) TierResult {
	return TierResult{
		Creator:      formatAddress(t.Creator),
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Price:        bigString(t.Price),
		DurationDays: t.DurationDays,
		Benefits:     t.Benefits,
		Active:       t.Active,
	}
}

func formatSubscription(s *subscription.Subscription) SubscriptionResult {
	return SubscriptionResult{
		Subscriber: formatAddress(s.Subscriber),
		Creator:    formatAddress(s.Creator),
		TierID:     s.TierID,
		StartedAt:  s.StartedAt,
		EndsAt:     s.EndsAt,
		AmountPaid: bigString(s.AmountPaid),
		Active:     s.Active,
	}
}

func formatChallenge(c *challenge.Challenge) ChallengeResult {
	return ChallengeResult{
		StreamID:    c.StreamID,
		ID:          c.ID,
		Creator:     formatAddress(c.Creator),
		Title:       c.Title,
		Description: c.Description,
		Goal:        bigString(c.Goal),
		Current:     bigString(c.Current),
		Completed:   c.Completed,
		ExpiresAt:   c.ExpiresAt,
	}
}

func formatContribution(c *challenge.Contribution) ContributionResult {
	return ContributionResult{
		StreamID:      c.StreamID,
		ChallengeID:   c.ChallengeID,
		Contributor:   formatAddress(c.Contributor),
		Amount:        bigString(c.Amount),
		ContributedAt: c.ContributedAt,
	}
}

func invalidParams(message string, data interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message, Data: data}
}

func decodeParams(req *RPCRequest, dst interface{}) error {
	if len(req.Params) != 1 {
		return invalidParams("exactly one parameter object expected", nil)
	}
	if err := json.Unmarshal(req.Params[0], dst); err != nil {
		return invalidParams("invalid parameter object", err.Error())
	}
	return nil
}

func parseAddress(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, invalidParams(fmt.Sprintf("%s is required", field), nil)
	}
	addr, err := crypto.ParseAccount(trimmed)
	if err != nil {
		return [20]byte{}, invalidParams(fmt.Sprintf("invalid %s address", field), err.Error())
	}
	return addr, nil
}

// parseAmount decodes a base-10 integer. Sign and range checks stay with the
// ledger so the same rules apply to every entry point.
func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, invalidParams(fmt.Sprintf("%s is required", field), nil)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, invalidParams(fmt.Sprintf("invalid %s", field), trimmed)
	}
	return amount, nil
}

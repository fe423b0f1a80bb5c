package rpc

import "context"

type methodHandler func(ctx context.Context, req *RPCRequest) (interface{}, error)

func (s *Server) routes() map[string]methodHandler {
	return map[string]methodHandler{
		"account_register":  s.handleAccountRegister,
		"account_update":    s.handleAccountUpdate,
		"account_setActive": s.handleAccountSetActive,
		"account_get":       s.handleAccountGet,

		"stream_start": s.handleStreamStart,
		"stream_end":   s.handleStreamEnd,
		"stream_get":   s.handleStreamGet,

		"engagement_record":  s.handleEngagementRecord,
		"engagement_get":     s.handleEngagementGet,
		"points_redeem":      s.handlePointsRedeem,
		"points_balance":     s.handlePointsBalance,
		"points_distributed": s.handlePointsDistributed,

		"settlement_tip":            s.handleSettlementTip,
		"settlement_platformFee":    s.handleSettlementPlatformFee,
		"settlement_setPlatformFee": s.handleSettlementSetPlatformFee,
		"settlement_feeTotals":      s.handleSettlementFeeTotals,

		"subscription_createTier":    s.handleSubscriptionCreateTier,
		"subscription_setTierActive": s.handleSubscriptionSetTierActive,
		"subscription_subscribe":     s.handleSubscriptionSubscribe,
		"subscription_tier":          s.handleSubscriptionTier,
		"subscription_get":           s.handleSubscriptionGet,
		"subscription_isSubscribed":  s.handleSubscriptionIsSubscribed,

		"challenge_create":       s.handleChallengeCreate,
		"challenge_contribute":   s.handleChallengeContribute,
		"challenge_get":          s.handleChallengeGet,
		"challenge_contribution": s.handleChallengeContribution,

		"ledger_balance":         s.handleLedgerBalance,
		"ledger_fund":            s.handleLedgerFund,
		"ledger_setModulePaused": s.handleLedgerSetModulePaused,
		"ledger_modulePaused":    s.handleLedgerModulePaused,
	}
}

type profileParams struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

type activeParams struct {
	Active bool `json:"active"`
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleAccountRegister(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params profileParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	account, err := s.ledger.RegisterAccount(ctx, params.Name, params.Bio)
	if err != nil {
		return nil, err
	}
	return formatAccount(account), nil
}

func (s *Server) handleAccountUpdate(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params profileParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	account, err := s.ledger.UpdateProfile(ctx, params.Name, params.Bio)
	if err != nil {
		return nil, err
	}
	return formatAccount(account), nil
}

func (s *Server) handleAccountSetActive(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params activeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	account, err := s.ledger.SetAccountActive(ctx, params.Active)
	if err != nil {
		return nil, err
	}
	return formatAccount(account), nil
}

func (s *Server) handleAccountGet(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		return nil, err
	}
	account, err := s.ledger.Account(addr)
	if err != nil {
		return nil, err
	}
	return formatAccount(account), nil
}

type streamStartParams struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MediaURI    string `json:"mediaUri"`
	Category    string `json:"category"`
}

type streamIDParams struct {
	StreamID uint64 `json:"streamId"`
}

func (s *Server) handleStreamStart(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params streamStartParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	st, err := s.ledger.StartStream(ctx, params.Title, params.Description, params.MediaURI, params.Category)
	if err != nil {
		return nil, err
	}
	return formatStream(st), nil
}

func (s *Server) handleStreamEnd(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params streamIDParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	st, err := s.ledger.EndStream(ctx, params.StreamID)
	if err != nil {
		return nil, err
	}
	return formatStream(st), nil
}

func (s *Server) handleStreamGet(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params streamIDParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	st, err := s.ledger.Stream(params.StreamID)
	if err != nil {
		return nil, err
	}
	return formatStream(st), nil
}

type engagementRecordParams struct {
	StreamID     uint64 `json:"streamId"`
	WatchMinutes uint64 `json:"watchMinutes"`
}

type engagementGetParams struct {
	StreamID uint64 `json:"streamId"`
	Viewer   string `json:"viewer"`
}

type pointsRedeemParams struct {
	Amount uint64 `json:"amount"`
}

type engagementRecordResult struct {
	StreamID      uint64 `json:"streamId"`
	PointsAwarded uint64 `json:"pointsAwarded"`
}

type pointsRedeemResult struct {
	Points uint64 `json:"points"`
	Payout string `json:"payout"`
}

type pointsDistributedResult struct {
	Total uint64 `json:"total"`
}

func (s *Server) handleEngagementRecord(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params engagementRecordParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	awarded, err := s.ledger.RecordEngagement(ctx, params.StreamID, params.WatchMinutes)
	if err != nil {
		return nil, err
	}
	return engagementRecordResult{StreamID: params.StreamID, PointsAwarded: awarded}, nil
}

func (s *Server) handleEngagementGet(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params engagementGetParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	viewer, err := parseAddress("viewer", params.Viewer)
	if err != nil {
		return nil, err
	}
	engagement, err := s.ledger.Engagement(params.StreamID, viewer)
	if err != nil {
		return nil, err
	}
	return formatEngagement(engagement), nil
}

func (s *Server) handlePointsRedeem(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params pointsRedeemParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	payout, err := s.ledger.RedeemPoints(ctx, params.Amount)
	if err != nil {
		return nil, err
	}
	return pointsRedeemResult{Points: params.Amount, Payout: bigString(payout)}, nil
}

func (s *Server) handlePointsBalance(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		return nil, err
	}
	account, err := s.ledger.PointsBalance(addr)
	if err != nil {
		return nil, err
	}
	return formatPoints(account), nil
}

func (s *Server) handlePointsDistributed(_ context.Context, _ *RPCRequest) (interface{}, error) {
	total, err := s.ledger.PointsDistributed()
	if err != nil {
		return nil, err
	}
	return pointsDistributedResult{Total: total}, nil
}

type tipParams struct {
	StreamID uint64 `json:"streamId"`
	Amount   string `json:"amount"`
}

type platformFeeParams struct {
	Percent uint64 `json:"percent"`
}

type feeTotalsParams struct {
	Domain string `json:"domain"`
}

type platformFeeResult struct {
	Percent uint64 `json:"percent"`
}

func (s *Server) handleSettlementTip(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params tipParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	receipt, err := s.ledger.Tip(ctx, params.StreamID, amount)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) handleSettlementPlatformFee(_ context.Context, _ *RPCRequest) (interface{}, error) {
	percent, err := s.ledger.PlatformFee()
	if err != nil {
		return nil, err
	}
	return platformFeeResult{Percent: percent}, nil
}

func (s *Server) handleSettlementSetPlatformFee(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params platformFeeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.ledger.SetPlatformFee(ctx, params.Percent); err != nil {
		return nil, err
	}
	return platformFeeResult{Percent: params.Percent}, nil
}

func (s *Server) handleSettlementFeeTotals(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params feeTotalsParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	totals, err := s.ledger.FeeTotals(params.Domain)
	if err != nil {
		return nil, err
	}
	return formatFeeTotals(totals), nil
}

type createTierParams struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	DurationDays uint64 `json:"durationDays"`
	Benefits     string `json:"benefits"`
}

type tierActiveParams struct {
	TierID uint64 `json:"tierId"`
	Active bool   `json:"active"`
}

type subscribeParams struct {
	Creator string `json:"creator"`
	TierID  uint64 `json:"tierId"`
}

type subscriptionParams struct {
	Subscriber string `json:"subscriber"`
	Creator    string `json:"creator"`
}

type isSubscribedResult struct {
	Subscribed bool `json:"subscribed"`
}

func (s *Server) handleSubscriptionCreateTier(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params createTierParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	price, err := parseAmount("price", params.Price)
	if err != nil {
		return nil, err
	}
	tier, err := s.ledger.CreateTier(ctx, params.Name, params.Description, price, params.DurationDays, params.Benefits)
	if err != nil {
		return nil, err
	}
	return formatTier(tier), nil
}

func (s *Server) handleSubscriptionSetTierActive(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params tierActiveParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	tier, err := s.ledger.SetTierActive(ctx, params.TierID, params.Active)
	if err != nil {
		return nil, err
	}
	return formatTier(tier), nil
}

func (s *Server) handleSubscriptionSubscribe(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params subscribeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	creatorAddr, err := parseAddress("creator", params.Creator)
	if err != nil {
		return nil, err
	}
	sub, err := s.ledger.Subscribe(ctx, creatorAddr, params.TierID)
	if err != nil {
		return nil, err
	}
	return formatSubscription(sub), nil
}

func (s *Server) handleSubscriptionTier(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params subscribeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	creatorAddr, err := parseAddress("creator", params.Creator)
	if err != nil {
		return nil, err
	}
	tier, err := s.ledger.Tier(creatorAddr, params.TierID)
	if err != nil {
		return nil, err
	}
	return formatTier(tier), nil
}

func (s *Server) handleSubscriptionGet(_ context.Context, req *RPCRequest) (interface{}, error) {
	subscriber, creatorAddr, err := decodeSubscriptionParams(req)
	if err != nil {
		return nil, err
	}
	sub, err := s.ledger.Subscription(subscriber, creatorAddr)
	if err != nil {
		return nil, err
	}
	return formatSubscription(sub), nil
}

func (s *Server) handleSubscriptionIsSubscribed(_ context.Context, req *RPCRequest) (interface{}, error) {
	subscriber, creatorAddr, err := decodeSubscriptionParams(req)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.ledger.IsSubscribed(subscriber, creatorAddr)
	if err != nil {
		return nil, err
	}
	return isSubscribedResult{Subscribed: subscribed}, nil
}

func decodeSubscriptionParams(req *RPCRequest) ([20]byte, [20]byte, error) {
	var params subscriptionParams
	if err := decodeParams(req, &params); err != nil {
		return [20]byte{}, [20]byte{}, err
	}
	subscriber, err := parseAddress("subscriber", params.Subscriber)
	if err != nil {
		return [20]byte{}, [20]byte{}, err
	}
	creatorAddr, err := parseAddress("creator", params.Creator)
	if err != nil {
		return [20]byte{}, [20]byte{}, err
	}
	return subscriber, creatorAddr, nil
}

type challengeCreateParams struct {
	StreamID    uint64 `json:"streamId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Goal        string `json:"goal"`
	ExpiresAt   uint64 `json:"expiresAt"`
}

type contributeParams struct {
	StreamID    uint64 `json:"streamId"`
	ChallengeID uint64 `json:"challengeId"`
	Amount      string `json:"amount"`
}

type challengeParams struct {
	StreamID    uint64 `json:"streamId"`
	ChallengeID uint64 `json:"challengeId"`
	Contributor string `json:"contributor,omitempty"`
}

func (s *Server) handleChallengeCreate(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params challengeCreateParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	goal, err := parseAmount("goal", params.Goal)
	if err != nil {
		return nil, err
	}
	c, err := s.ledger.CreateChallenge(ctx, params.StreamID, params.Title, params.Description, goal, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return formatChallenge(c), nil
}

func (s *Server) handleChallengeContribute(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params contributeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	c, err := s.ledger.Contribute(ctx, params.StreamID, params.ChallengeID, amount)
	if err != nil {
		return nil, err
	}
	return formatChallenge(c), nil
}

func (s *Server) handleChallengeGet(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params challengeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	c, err := s.ledger.Challenge(params.StreamID, params.ChallengeID)
	if err != nil {
		return nil, err
	}
	return formatChallenge(c), nil
}

func (s *Server) handleChallengeContribution(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params challengeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	contributor, err := parseAddress("contributor", params.Contributor)
	if err != nil {
		return nil, err
	}
	c, err := s.ledger.Contribution(params.StreamID, params.ChallengeID, contributor)
	if err != nil {
		return nil, err
	}
	return formatContribution(c), nil
}

type fundParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type moduleParams struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

type moduleStatusResult struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

func (s *Server) handleLedgerBalance(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Balance(addr)
	if err != nil {
		return nil, err
	}
	return BalanceResult{Address: formatAddress(addr), Balance: bigString(balance)}, nil
}

func (s *Server) handleLedgerFund(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params fundParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Fund(ctx, addr, amount)
	if err != nil {
		return nil, err
	}
	return BalanceResult{Address: formatAddress(addr), Balance: bigString(balance)}, nil
}

func (s *Server) handleLedgerSetModulePaused(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params moduleParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.ledger.SetModulePaused(ctx, params.Module, params.Paused); err != nil {
		return nil, err
	}
	return s.moduleStatus(params.Module)
}

func (s *Server) handleLedgerModulePaused(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params moduleParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	return s.moduleStatus(params.Module)
}

func (s *Server) moduleStatus(module string) (interface{}, error) {
	paused, err := s.ledger.ModulePaused(module)
	if err != nil {
		return nil, err
	}
	return moduleStatusResult{Module: module, Paused: paused}, nil
}

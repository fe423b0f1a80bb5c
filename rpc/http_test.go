package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"streamledger/core/events"
	"streamledger/core/ledger"
	"streamledger/crypto"
	"streamledger/storage"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "streamledger-test"
	testAudience = "streamledger-api"
)

var (
	adminAddr    = [20]byte{0xAD}
	platformAddr = [20]byte{0xF0}
	poolAddr     = [20]byte{0xEE}
	creatorAddr  = [20]byte{0xC1}
	viewerAddr   = [20]byte{0xB2}
)

type testEnv struct {
	server  *Server
	handler http.Handler
	feed    *events.Feed
	clock   *ledger.FixedClock
}

func newTestEnv(t *testing.T, limit RateLimit) *testEnv {
	t.Helper()
	feed := events.NewFeed(16)
	clock := &ledger.FixedClock{At: 1_000}
	l, err := ledger.New(storage.NewMemDB(), ledger.Options{
		Admin:           adminAddr,
		PlatformAccount: platformAddr,
		RewardsPool:     poolAddr,
		Clock:           clock,
		Emitter:         feed,
	})
	require.NoError(t, err)
	server, err := NewServer(Config{
		Ledger:    l,
		Feed:      feed,
		Auth:      AuthConfig{HMACSecret: testSecret, Issuer: testIssuer, Audience: testAudience},
		RateLimit: limit,
	})
	require.NoError(t, err)
	return &testEnv{server: server, handler: server.Handler(), feed: feed, clock: clock}
}

func defaultLimit() RateLimit {
	return RateLimit{RequestsPerMinute: 60_000, Burst: 1_000}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func tokenFor(t *testing.T, addr [20]byte) string {
	t.Helper()
	return signToken(t, testSecret, jwt.MapClaims{
		"sub": crypto.FormatAccount(addr),
		"iss": testIssuer,
		"aud": testAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

type rpcResult struct {
	status int
	header http.Header
	resp   RPCResponse
	raw    json.RawMessage
}

func (e *testEnv) call(t *testing.T, token, method string, params interface{}) rpcResult {
	t.Helper()
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.RemoteAddr = "203.0.113.7:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var envelope struct {
		RPCResponse
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	envelope.RPCResponse.Result = nil
	return rpcResult{status: rec.Code, header: rec.Header(), resp: envelope.RPCResponse, raw: envelope.Result}
}

func (r rpcResult) decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.Nil(t, r.resp.Error)
	require.NoError(t, json.Unmarshal(r.raw, dst))
}

func (e *testEnv) liveStream(t *testing.T) uint64 {
	t.Helper()
	res := e.call(t, tokenFor(t, creatorAddr), "account_register", map[string]string{"name": "Alice", "bio": "speedruns"})
	require.Equal(t, http.StatusOK, res.status)
	res = e.call(t, tokenFor(t, creatorAddr), "stream_start", map[string]string{"title": "Any% attempt", "category": "games"})
	require.Equal(t, http.StatusOK, res.status)
	var st StreamResult
	res.decode(t, &st)
	require.True(t, st.Active)
	require.Equal(t, crypto.FormatAccount(creatorAddr), st.Creator)
	return st.ID
}

func TestTipSplitsPaymentOverRPC(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	id := env.liveStream(t)

	res := env.call(t, tokenFor(t, adminAddr), "ledger_fund", map[string]string{
		"address": crypto.FormatAccount(viewerAddr),
		"amount":  "1000",
	})
	require.Equal(t, http.StatusOK, res.status)

	res = env.call(t, tokenFor(t, viewerAddr), "settlement_tip", map[string]interface{}{"streamId": id, "amount": "100"})
	require.Equal(t, http.StatusOK, res.status)
	var receipt ReceiptResult
	res.decode(t, &receipt)
	require.Equal(t, "100", receipt.Gross)
	require.Equal(t, "5", receipt.Fee)
	require.Equal(t, "95", receipt.Net)
	require.Equal(t, uint64(5), receipt.Percent)

	for addr, want := range map[[20]byte]string{viewerAddr: "900", creatorAddr: "95", platformAddr: "5"} {
		res = env.call(t, "", "ledger_balance", map[string]string{"address": crypto.FormatAccount(addr)})
		var balance BalanceResult
		res.decode(t, &balance)
		require.Equal(t, want, balance.Balance)
	}

	res = env.call(t, "", "account_get", map[string]string{"address": crypto.FormatAccount(creatorAddr)})
	var account AccountResult
	res.decode(t, &account)
	require.Equal(t, "95", account.TotalEarnings)

	res = env.call(t, "", "settlement_feeTotals", map[string]string{"domain": "tip"})
	var totals FeeTotalsResult
	res.decode(t, &totals)
	require.Equal(t, "100", totals.Gross)
	require.Equal(t, "5", totals.Fee)
}

func TestEngagementOverRPC(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	id := env.liveStream(t)

	res := env.call(t, tokenFor(t, viewerAddr), "engagement_record", map[string]interface{}{"streamId": id, "watchMinutes": 5})
	var recorded engagementRecordResult
	res.decode(t, &recorded)
	require.Equal(t, uint64(50), recorded.PointsAwarded)

	res = env.call(t, "", "points_balance", map[string]string{"address": crypto.FormatAccount(viewerAddr)})
	var balance PointsResult
	res.decode(t, &balance)
	require.Equal(t, uint64(50), balance.Available)

	res = env.call(t, "", "points_distributed", nil)
	var distributed pointsDistributedResult
	res.decode(t, &distributed)
	require.Equal(t, uint64(50), distributed.Total)
}

func TestMutationWithoutTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	res := env.call(t, "", "account_register", map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusUnauthorized, res.status)
	require.NotNil(t, res.resp.Error)
	require.Equal(t, codeUnauthorized, res.resp.Error.Code)
}

func TestRejectsInvalidTokens(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	cases := map[string]string{
		"wrong secret": signToken(t, "other-secret", jwt.MapClaims{
			"sub": crypto.FormatAccount(viewerAddr), "iss": testIssuer, "aud": testAudience,
		}),
		"wrong issuer": signToken(t, testSecret, jwt.MapClaims{
			"sub": crypto.FormatAccount(viewerAddr), "iss": "someone-else", "aud": testAudience,
		}),
		"wrong audience": signToken(t, testSecret, jwt.MapClaims{
			"sub": crypto.FormatAccount(viewerAddr), "iss": testIssuer, "aud": "elsewhere",
		}),
		"expired": signToken(t, testSecret, jwt.MapClaims{
			"sub": crypto.FormatAccount(viewerAddr), "iss": testIssuer, "aud": testAudience,
			"exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"bad subject": signToken(t, testSecret, jwt.MapClaims{
			"sub": "not-an-account", "iss": testIssuer, "aud": testAudience,
		}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			res := env.call(t, token, "account_register", map[string]string{"name": "Alice"})
			require.Equal(t, http.StatusUnauthorized, res.status)
			require.Equal(t, codeUnauthorized, res.resp.Error.Code)
		})
	}
}

func TestAdminOperationRequiresAdministrator(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	res := env.call(t, tokenFor(t, viewerAddr), "settlement_setPlatformFee", map[string]uint64{"percent": 10})
	require.Equal(t, http.StatusForbidden, res.status)
	require.Equal(t, codeForbidden, res.resp.Error.Code)

	res = env.call(t, tokenFor(t, adminAddr), "settlement_setPlatformFee", map[string]uint64{"percent": 10})
	require.Equal(t, http.StatusOK, res.status)

	res = env.call(t, "", "settlement_platformFee", nil)
	var fee platformFeeResult
	res.decode(t, &fee)
	require.Equal(t, uint64(10), fee.Percent)

	res = env.call(t, tokenFor(t, adminAddr), "settlement_setPlatformFee", map[string]uint64{"percent": 101})
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, codeInvalidParams, res.resp.Error.Code)
}

func TestPausedModuleReturnsUnavailable(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	res := env.call(t, tokenFor(t, adminAddr), "ledger_setModulePaused", map[string]interface{}{"module": "creator", "paused": true})
	require.Equal(t, http.StatusOK, res.status)
	var status moduleStatusResult
	res.decode(t, &status)
	require.True(t, status.Paused)

	res = env.call(t, tokenFor(t, creatorAddr), "account_register", map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusServiceUnavailable, res.status)
	require.Equal(t, codeModulePaused, res.resp.Error.Code)
}

func TestErrorClassification(t *testing.T) {
	env := newTestEnv(t, defaultLimit())

	res := env.call(t, "", "stream_get", map[string]uint64{"streamId": 99})
	require.Equal(t, http.StatusNotFound, res.status)
	require.Equal(t, codeNotFound, res.resp.Error.Code)
	require.Equal(t, map[string]interface{}{"category": "not found"}, res.resp.Error.Data)

	env.liveStream(t)
	res = env.call(t, tokenFor(t, creatorAddr), "account_register", map[string]string{"name": "Alice"})
	require.Equal(t, http.StatusConflict, res.status)

	res = env.call(t, tokenFor(t, viewerAddr), "settlement_tip", map[string]interface{}{"streamId": 1, "amount": "100"})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	require.Equal(t, codeTransferFailed, res.resp.Error.Code)

	res = env.call(t, tokenFor(t, viewerAddr), "points_redeem", map[string]uint64{"amount": 100})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	require.Equal(t, codeInsufficient, res.resp.Error.Code)
}

func TestRejectsMalformedRequests(t *testing.T) {
	env := newTestEnv(t, defaultLimit())

	res := env.call(t, "", "nothing_here", nil)
	require.Equal(t, http.StatusNotFound, res.status)
	require.Equal(t, codeMethodNotFound, res.resp.Error.Code)

	res = env.call(t, tokenFor(t, viewerAddr), "settlement_tip", map[string]interface{}{"streamId": 1, "amount": "lots"})
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, codeInvalidParams, res.resp.Error.Code)

	res = env.call(t, "", "account_get", map[string]string{"address": "strm1bogus"})
	require.Equal(t, http.StatusBadRequest, res.status)

	res = env.call(t, "", "account_get", nil)
	require.Equal(t, http.StatusBadRequest, res.status)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionOverRPC(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	env.liveStream(t)
	env.call(t, tokenFor(t, adminAddr), "ledger_fund", map[string]string{
		"address": crypto.FormatAccount(viewerAddr),
		"amount":  "1000",
	})

	res := env.call(t, tokenFor(t, creatorAddr), "subscription_createTier", map[string]interface{}{
		"name": "Gold", "price": "100", "durationDays": 30,
	})
	require.Equal(t, http.StatusOK, res.status)
	var tier TierResult
	res.decode(t, &tier)
	require.Equal(t, uint64(1), tier.ID)

	res = env.call(t, tokenFor(t, viewerAddr), "subscription_subscribe", map[string]interface{}{
		"creator": crypto.FormatAccount(creatorAddr), "tierId": tier.ID,
	})
	require.Equal(t, http.StatusOK, res.status)
	var sub SubscriptionResult
	res.decode(t, &sub)
	require.Equal(t, "100", sub.AmountPaid)
	require.Equal(t, uint64(1_000+30*86_400), sub.EndsAt)

	res = env.call(t, "", "subscription_isSubscribed", map[string]string{
		"subscriber": crypto.FormatAccount(viewerAddr),
		"creator":    crypto.FormatAccount(creatorAddr),
	})
	var subscribed isSubscribedResult
	res.decode(t, &subscribed)
	require.True(t, subscribed.Subscribed)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	res := env.call(t, "", "points_distributed", nil)
	require.NotEmpty(t, res.header.Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "6f1c2a8e-4b1d-4d7e-9a55-0c3f4e2b9d10")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "6f1c2a8e-4b1d-4d7e-9a55-0c3f4e2b9d10", rec.Header().Get(requestIDHeader))
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount("amount", " 12345678901234567890 ")
	require.NoError(t, err)
	require.Zero(t, amount.Cmp(new(big.Int).SetUint64(12345678901234567890)))

	_, err = parseAmount("amount", "")
	require.Error(t, err)
	_, err = parseAmount("amount", "1e3")
	require.Error(t, err)
}

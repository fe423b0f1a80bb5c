package rpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"streamledger/crypto"
	"streamledger/native/settlement"
)

func TestEventFeedStreamsCommittedEvents(t *testing.T) {
	env := newTestEnv(t, defaultLimit())
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	id := env.liveStream(t)
	env.call(t, tokenFor(t, adminAddr), "ledger_fund", map[string]string{
		"address": crypto.FormatAccount(viewerAddr),
		"amount":  "1000",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?prefix=settlement."
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// A failed tip commits nothing and must not reach the feed.
	res := env.call(t, tokenFor(t, viewerAddr), "settlement_tip", map[string]interface{}{"streamId": id, "amount": "5000"})
	require.NotNil(t, res.resp.Error)

	res = env.call(t, tokenFor(t, viewerAddr), "settlement_tip", map[string]interface{}{"streamId": id, "amount": "100"})
	require.Nil(t, res.resp.Error)

	var got []EventMessage
	for len(got) < 2 {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg EventMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		got = append(got, msg)
	}
	require.Equal(t, settlement.EventTypePaymentSettled, got[0].Type)
	require.Equal(t, "100", got[0].Attributes["gross"])
	require.Equal(t, "5", got[0].Attributes["fee"])
	require.Equal(t, settlement.EventTypeTipReceived, got[1].Type)
	require.Equal(t, crypto.FormatAccount(viewerAddr), got[1].Attributes["tipper"])
}

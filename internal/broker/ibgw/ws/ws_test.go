package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"tradelog/internal/broker"
	"tradelog/internal/logger"
	"tradelog/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	skipReady    bool
	failRequests bool
	authed       atomic.Bool
	requests     atomic.Int32
}

func (g *fakeGateway) serve(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/stream", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		send := func(msgType string, reqID int64, data any) {
			payload, _ := json.Marshal(data)
			_ = conn.WriteJSON(Message{Type: msgType, ReqID: reqID, Data: payload})
		}

		send(msgError, -1, errorData{Code: broker.CodeMarketDataFarmOK, Message: "Market data farm connection is OK"})
		if !g.skipReady {
			send(msgNextValidID, 0, nextValidIDData{OrderID: 1001})
		}

		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			switch req["op"] {
			case "auth":
				g.authed.Store(true)
			case "reqExecutions":
				g.requests.Add(1)
				reqID := int64(req["reqId"].(float64))
				if g.failRequests {
					send(msgError, -1, errorData{Code: broker.CodeNotConnected, Message: "Not connected"})
					continue
				}
				send(msgExecDetails, reqID, sampleFill())
				send(msgExecDetails, reqID, models.Fill{
					Contract:  models.Contract{SecType: "STK", Symbol: "IBM", LocalSymbol: "IBM"},
					Execution: models.Execution{ExecID: "stk.1", Side: models.SideBought, Shares: 10, Time: "20130912 15:00:00"},
				})
				send(msgCommissionReport, 0, models.CommissionReport{ExecID: "0001f4e8.52321d01.01.01", Commission: 2.27})
				send(msgExecDetailsEnd, reqID, nil)
			}
		}
	}))
}

func sampleFill() models.Fill {
	return models.Fill{
		Contract: models.Contract{
			SecType:     models.SecTypeOption,
			Symbol:      "SPX",
			LocalSymbol: "SPX   130921P01660000",
			Expiry:      "20130921",
			Strike:      1660,
			Right:       models.RightPut,
			Multiplier:  "100",
		},
		Execution: models.Execution{
			ExecID:  "0001f4e8.52321d01.01.01",
			OrderID: 222222222,
			PermID:  111111111,
			Side:    models.SideBought,
			Shares:  2,
			Price:   3.15,
			Time:    "20130912  22:31:15",
		},
	}
}

func newTestClient(t *testing.T, g *fakeGateway, apiKey, secret string) *Client {
	srv := g.serve(t)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/stream?clientId=0"
	c, err := New(url, apiKey, secret, time.Second, logger.New(logger.Config{ConsoleLevel: "off"}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func TestStreamURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:4001/v1/stream?clientId=3", StreamURL("127.0.0.1", 4001, 3))
}

func TestClient_ConnectAndSnapshot(t *testing.T) {
	g := &fakeGateway{}
	c := newTestClient(t, g, "key", "secret")

	_, err := c.SnapshotFills(context.Background())
	assert.ErrorIs(t, err, broker.ErrNotConnected)

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Connected())

	snap, err := c.SnapshotFills(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Fills, 2)
	assert.Equal(t, sampleFill(), snap.Fills[0])
	require.Len(t, snap.Commissions, 1)
	assert.Equal(t, 2.27, snap.Commissions[0].Commission)

	snap, err = c.SnapshotFills(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Fills, 2, "replayed executions are not duplicated")
	assert.Equal(t, int32(2), g.requests.Load())
	assert.Eventually(t, g.authed.Load, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Disconnect())
	assert.False(t, c.Connected())
}

func TestClient_ConnectTimesOutWithoutReady(t *testing.T) {
	g := &fakeGateway{skipReady: true}
	c := newTestClient(t, g, "", "")
	c.readyTimeout = 50 * time.Millisecond

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, broker.ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestClient_NotConnectedErrorDropsSession(t *testing.T) {
	g := &fakeGateway{failRequests: true}
	c := newTestClient(t, g, "", "")
	require.NoError(t, c.Connect(context.Background()))

	_, err := c.SnapshotFills(context.Background())
	require.Error(t, err)
	assert.True(t, broker.Disconnected(err))
	assert.False(t, c.Connected())

	require.NoError(t, c.Connect(context.Background()), "a dropped session can reconnect")
	assert.True(t, c.Connected())
}

func TestClient_SnapshotHonoursContext(t *testing.T) {
	g := &fakeGateway{}
	c := newTestClient(t, g, "", "")
	require.NoError(t, c.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SnapshotFills(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

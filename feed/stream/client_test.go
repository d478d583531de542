package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/feed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newTestServer runs a websocket server that expects one subscribe
// request, then sends each tick and holds the connection open.
func newTestServer(t *testing.T, ticks []string) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeRequest
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		for _, tick := range ticks {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tick)); err != nil {
				return
			}
		}
		// Hold until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForPrice(t *testing.T, c *Client, symbol string) float64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		price, err := c.LatestPrice(context.Background(), symbol)
		if err == nil {
			return price
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no price for %s within deadline", symbol)
	return 0
}

func TestStreamCachesTicks(t *testing.T) {
	url := newTestServer(t, []string{
		`{"id":1,"result":null}`,
		`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"50123.45"}`,
		`{"e":"24hrMiniTicker","s":"ETHUSDT","c":"3000.1"}`,
	})

	c := New(url, []string{"BTCUSDT", "ETHUSDT"}, nil)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	assert.Equal(t, 50123.45, waitForPrice(t, c, "BTCUSDT"))
	assert.Equal(t, 3000.1, waitForPrice(t, c, "ETHUSDT"))
	assert.True(t, c.Connected())
}

func TestStreamUnknownSymbol(t *testing.T) {
	url := newTestServer(t, nil)

	c := New(url, []string{"BTCUSDT"}, nil)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	_, err := c.LatestPrice(context.Background(), "DOGEUSDT")
	assert.ErrorIs(t, err, feed.ErrUnavailable)
}

func TestStreamDropsMalformedTicks(t *testing.T) {
	url := newTestServer(t, []string{
		`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"not-a-number"}`,
		`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"101"}`,
	})

	c := New(url, []string{"BTCUSDT"}, nil)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	assert.Equal(t, 101.0, waitForPrice(t, c, "BTCUSDT"))
}

func TestConnectFailsFast(t *testing.T) {
	c := New("ws://127.0.0.1:1/ws", []string{"BTCUSDT"}, nil)
	assert.Error(t, c.Connect(context.Background()))
}

package broadcast

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmc-solana/lytra/internal/signal"
)

func TestLatestKeepsNewestValue(t *testing.T) {
	l := NewLatest[int]()
	l.Publish(1)
	l.Publish(2)
	l.Publish(3)

	v, ok := l.Poll()
	require.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = l.Poll()
	assert.False(t, ok)
}

func TestPublishUsersCopiesRows(t *testing.T) {
	b := New(nil)
	rows := []signal.UserInfo{{Username: "a", Status: signal.StatusWaiting}}
	b.PublishUsers(rows)
	rows[0].Status = "mutated"

	got, ok := b.Users().Poll()
	require.True(t, ok)
	assert.Equal(t, signal.StatusWaiting, got[0].Status)
}

func TestAlertsDropWhenFull(t *testing.T) {
	b := New(nil)
	for i := 0; i < 100; i++ {
		b.Alert("x")
	}
	assert.Len(t, b.Alerts(), cap(b.alerts))
}

func TestHubSendsLastFrameToNewClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	b := New(hub)
	b.PublishUsers([]signal.UserInfo{{AccountID: "1", Username: "alice", Status: signal.StatusWaiting}})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, TypeUsers, env.Type)

	var rows []signal.UserInfo
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Username)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	b.PublishWallet(signal.WalletInfo{Pubkey: "PK", SOL: 1.5})
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, TypeWallet, env.Type)
}

func TestPublishDropsClientWhoseQueueIsFull(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := &client{send: make(chan []byte, sendBuffer)}
	hub.register(c)

	for i := 0; i < sendBuffer; i++ {
		hub.Publish(TypeAlert, i)
	}
	assert.Equal(t, 1, hub.Clients())

	hub.Publish(TypeAlert, "overflow")
	assert.Equal(t, 0, hub.Clients())
	for range c.send {
	}
}

func TestStalledClientDoesNotBlockPublishers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close() // never read from
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	b := New(hub)
	rows := make([]signal.UserInfo, 2000)
	for i := range rows {
		rows[i] = signal.UserInfo{AccountID: "id", Username: "someone", LastPost: strings.Repeat("x", 40), Status: signal.StatusWaiting}
	}
	var worst time.Duration
	for i := 0; i < 400; i++ {
		start := time.Now()
		b.PublishUsers(rows)
		worst = max(worst, time.Since(start))
	}
	assert.Less(t, worst, time.Second)
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

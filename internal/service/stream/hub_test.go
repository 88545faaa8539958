package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GoldPulse/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readView(t *testing.T, conn *websocket.Conn) models.DisplayView {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var v models.DisplayView
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func TestHubSendsLastSnapshotOnConnect(t *testing.T) {
	hub := NewHub(Config{PingInterval: time.Minute}, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	require.NoError(t, hub.PublishDisplay(context.Background(), &models.DisplayView{Sequence: 3, PriceText: "612.53 CNY/g"}))

	conn := dial(t, srv)
	defer conn.Close()

	v := readView(t, conn)
	assert.Equal(t, uint64(3), v.Sequence)
	assert.Equal(t, "612.53 CNY/g", v.PriceText)
}

func TestHubBroadcasts(t *testing.T) {
	hub := NewHub(Config{PingInterval: time.Minute}, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.PublishDisplay(context.Background(), &models.DisplayView{Sequence: 9}))

	assert.Equal(t, uint64(9), readView(t, a).Sequence)
	assert.Equal(t, uint64(9), readView(t, b).Sequence)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(Config{PingInterval: time.Minute}, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubPublishNeverBlocksOnSlowClient(t *testing.T) {
	hub := NewHub(Config{PingInterval: time.Minute, ClientBuffer: 1}, nil)
	c := &client{send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = hub.PublishDisplay(context.Background(), &models.DisplayView{Sequence: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, c.send, 1)
	assert.Equal(t, "websocket", hub.Name())
}

func TestHubPublishDuringCloseDoesNotPanic(t *testing.T) {
	hub := NewHub(Config{PingInterval: time.Minute, ClientBuffer: 1}, nil)
	for i := 0; i < 2000; i++ {
		hub.clients[&client{send: make(chan []byte, 1)}] = struct{}{}
	}

	panicked := make(chan any, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				panicked <- r
			}
		}()
		for i := 0; i < 200; i++ {
			_ = hub.PublishDisplay(context.Background(), &models.DisplayView{Sequence: uint64(i)})
		}
	}()
	hub.Close()
	<-done

	select {
	case r := <-panicked:
		t.Fatalf("publish panicked: %v", r)
	default:
	}
	assert.Zero(t, hub.Clients())
}

package cache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedValue struct {
	val     string
	expires time.Time
}

// respServer speaks enough RESP2 for GET, SET with EX/PX, and PING.
type respServer struct {
	ln   net.Listener
	mu   sync.Mutex
	data map[string]storedValue
	now  time.Time
	keys []string
}

func startRESP(t *testing.T) *respServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &respServer{ln: ln, data: map[string]storedValue{}, now: time.Unix(1_700_000_000, 0)}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *respServer) advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

func (s *respServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *respServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		reply := s.exec(args)
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
		if strings.EqualFold(args[0], "QUIT") {
			return
		}
	}
}

func (s *respServer) exec(args []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "QUIT":
		return "+OK\r\n"
	case "GET":
		e, ok := s.data[args[1]]
		if !ok || (!e.expires.IsZero() && !s.now.Before(e.expires)) {
			delete(s.data, args[1])
			return "$-1\r\n"
		}
		return fmt.Sprintf("$%d\r\n%s\r\n", len(e.val), e.val)
	case "SET":
		e := storedValue{val: args[2]}
		for i := 3; i+1 < len(args); i += 2 {
			n, _ := strconv.ParseInt(args[i+1], 10, 64)
			switch strings.ToUpper(args[i]) {
			case "EX":
				e.expires = s.now.Add(time.Duration(n) * time.Second)
			case "PX":
				e.expires = s.now.Add(time.Duration(n) * time.Millisecond)
			}
		}
		s.data[args[1]] = e
		s.keys = append(s.keys, args[1])
		return "+OK\r\n"
	default:
		return "-ERR unknown command '" + args[0] + "'\r\n"
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "*") {
		return strings.Fields(line), nil
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("bad array header %q", line)
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimRight(hdr, "\r\n")[1:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func newTestRedis(t *testing.T, srv *respServer) *RedisCache {
	t.Helper()
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     srv.ln.Addr().String(),
		Protocol: 2,
	}), "")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheRoundTripAndExpiry(t *testing.T) {
	srv := startRESP(t)
	c := newTestRedis(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, ok, err := c.GetBytes(ctx, "price|cny|grams|default")
	require.NoError(t, err)
	assert.False(t, ok, "miss before set")

	require.NoError(t, c.SetBytes(ctx, "price|cny|grams|default", []byte(`{"currency":"cny"}`), 15*time.Second))
	b, ok, err := c.GetBytes(ctx, "price|cny|grams|default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"currency":"cny"}`, string(b))

	srv.advance(16 * time.Second)
	_, ok, err = c.GetBytes(ctx, "price|cny|grams|default")
	require.NoError(t, err)
	assert.False(t, ok, "expired")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, []string{"goldpulse:price|cny|grams|default"}, srv.keys)
}

func TestRedisCacheSubSecondTTL(t *testing.T) {
	srv := startRESP(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: srv.ln.Addr().String(), Protocol: 2}), "test:")
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), 500*time.Millisecond))
	_, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	srv.advance(time.Second)
	_, ok, err = c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewRedisCache(RedisConfig{Addr: addr})
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
	_, _, err = c.GetBytes(ctx, "k")
	assert.Error(t, err)
}

package redis

import (
	"context"
	"net"
	"strconv"
	"testing"

	"retail-banking-core/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func miniredisConfig(t *testing.T, s *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: s.Host(), Port: port}
}

func TestNewClient_Connects(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), miniredisConfig(t, s), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "probe", "1", 0).Err())
	got, err := s.Get("probe")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	hc := NewHealthCheck(client)
	assert.Equal(t, "redis", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	// Grab a free port and release it so nothing is listening there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = NewClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: port}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging redis at 127.0.0.1:"+strconv.Itoa(port))
}

func TestNewClient_WrongPassword(t *testing.T) {
	s := miniredis.RunT(t)
	s.RequireAuth("s3cret")

	cfg := miniredisConfig(t, s)
	cfg.Password = "nope"
	_, err := NewClient(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

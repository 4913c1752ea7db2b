package redis

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFor(t *testing.T, addr string) Config {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Host, cfg.Port = host, p
	return cfg
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), configFor(t, mr.Addr()))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cfg := configFor(t, mr.Addr())
	mr.Close()

	_, err = NewClient(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.Options()

	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, -1, opts.MaxRetries)

	cfg.MaxRetries = 2
	assert.Equal(t, 2, cfg.Options().MaxRetries)
}

package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsNative(t *testing.T) {
	cfg := Config{
		Host:         "ch.local",
		Database:     "rentwise",
		Password:     "p@ss",
		MaxExecTime:  time.Minute,
		AsyncInsert:  true,
		WaitForAsync: true,
		Compress:     true,
	}.withDefaults()
	opts := cfg.options()

	assert.Equal(t, clickhouse.Native, opts.Protocol)
	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, "rentwise", opts.Auth.Database)
	assert.Equal(t, "default", opts.Auth.Username)
	assert.Equal(t, "p@ss", opts.Auth.Password)
	assert.Equal(t, 60, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, 1, opts.Settings["wait_for_async_insert"])
	require.NotNil(t, opts.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, opts.Compression.Method)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestOptionsHTTP(t *testing.T) {
	opts := Config{Host: "ch", UseHTTP: true}.withDefaults().options()
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, []string{"ch:8123"}, opts.Addr)
	assert.Nil(t, opts.Compression)
	assert.Empty(t, opts.Settings)
}

func TestOpenRequiresHost(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.ErrorContains(t, err, "host is required")
}

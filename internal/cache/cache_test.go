package cache

import (
	"testing"
	"time"

	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respWithTTL(address string, ttl int) dnsmsg.Message {
	m := dnsmsg.NewResponse(nil)
	m.SetResp(address, 1, true, true, ttl, nil)
	return m
}

func TestCacheAddAndGet(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return fixed }
	c.Add("fuberlin", respWithTTL("127.0.0.11", 300))

	got, ok := c.Get("fuberlin")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.11", got.Address())
	assert.Equal(t, 300, got.TTL())
}

func TestCacheLongestSuffixMatch(t *testing.T) {
	c := New()
	c.Add("fuberlin", respWithTTL("127.0.0.11", 300))
	c.Add("pcpools.fuberlin", respWithTTL("127.0.0.16", 60))

	got, ok := c.Get("windows.pcpools.fuberlin")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.16", got.Address())
}

func TestCacheMissReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.Get("example.org")
	assert.False(t, ok)
}

func TestCacheAddOverwritesUnconditionally(t *testing.T) {
	c := New()
	c.Add("fuberlin", respWithTTL("127.0.0.11", 300))
	c.Add("fuberlin", respWithTTL("127.0.0.99", 300))

	got, ok := c.Get("fuberlin")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.99", got.Address())
}

func TestCacheEntryExpiresAndIsSweptOnRead(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return fixed }
	c.Add("fuberlin", respWithTTL("127.0.0.11", 10))

	c.now = func() time.Time { return fixed.Add(11 * time.Second) }
	_, ok := c.Get("fuberlin")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry must be swept, not merely ignored")
}

func TestCacheGetReturnsDecayedTTLNotOriginal(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return fixed }
	c.Add("fuberlin", respWithTTL("127.0.0.11", 100))

	c.now = func() time.Time { return fixed.Add(40 * time.Second) }
	got, ok := c.Get("fuberlin")
	require.True(t, ok)
	assert.Equal(t, 60, got.TTL())
}

func TestCacheGetDoesNotMutateStoredEntry(t *testing.T) {
	c := New()
	c.Add("fuberlin", respWithTTL("127.0.0.11", 300))

	first, _ := c.Get("fuberlin")
	first.SetUpdatedTTL(1)

	second, _ := c.Get("fuberlin")
	assert.NotEqual(t, 1, second.TTL())
}

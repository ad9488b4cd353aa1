package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedBurst(t *testing.T) {
	k := NewKeyed(rate.Limit(1), 3)

	for i := 0; i < 3; i++ {
		assert.True(t, k.Allow("alice"), "request %d within burst", i)
	}
	assert.False(t, k.Allow("alice"), "burst exhausted")
}

func TestKeyedIsolatesKeys(t *testing.T) {
	k := NewKeyed(rate.Limit(1), 1)

	assert.True(t, k.Allow("alice"))
	assert.False(t, k.Allow("alice"))
	assert.True(t, k.Allow("bob"), "bob has a separate bucket")
}

func TestKeyedRefills(t *testing.T) {
	k := NewKeyed(rate.Inf, 1)

	for i := 0; i < 10; i++ {
		assert.True(t, k.Allow("alice"))
	}
}

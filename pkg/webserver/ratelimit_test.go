package webserver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimitersForgetIdleClients(t *testing.T) {
	limiters := newClientLimiters(60, 1)
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	limiters.now = func() time.Time { return now }
	limiters.lastSweep = now

	for i := 0; i < 100; i++ {
		assert.True(t, limiters.allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, 100, limiters.size())
	assert.False(t, limiters.allow("10.0.0.1"))

	// One client stays active while the rest go quiet
	now = now.Add(limiters.idle / 2)
	assert.True(t, limiters.allow("10.0.0.1"))

	now = now.Add(limiters.idle / 2)
	assert.True(t, limiters.allow("10.0.0.200"))
	assert.Equal(t, 2, limiters.size())
}

func TestClientLimitersIdleCoversRefill(t *testing.T) {
	assert.Equal(t, minLimiterIdle, newClientLimiters(60, 10).idle)
	assert.Equal(t, 30*time.Minute, newClientLimiters(1, 30).idle)
	assert.Equal(t, minLimiterIdle, newClientLimiters(0, 5).idle)
}

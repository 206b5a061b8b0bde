package httpserver

import (
	"sync"

	"golang.org/x/time/rate"
)

// channelLimiter keeps one token bucket per channel.
type channelLimiter struct {
	mu     sync.Mutex // guards byChan
	byChan map[string]*rate.Limiter
	limit  rate.Limit
	burst  int
}

// newChannelLimiter returns nil (no throttling) when perSec is zero.
func newChannelLimiter(perSec float64, burst int) *channelLimiter {
	if perSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &channelLimiter{
		byChan: make(map[string]*rate.Limiter),
		limit:  rate.Limit(perSec),
		burst:  burst,
	}
}

// allow reports whether channelID may send another request now.
func (c *channelLimiter) allow(channelID string) bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	l, ok := c.byChan[channelID]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.byChan[channelID] = l
	}
	c.mu.Unlock()
	return l.Allow()
}

package stub

import (
	"context"
	"sync"
	"time"

	"solana-pool-sniper/internal/solana"
)

// WSClient implements solana.WSClient for testing. Notifications pushed
// via PushLog and PushProgram are delivered to the active subscription.
type WSClient struct {
	mu           sync.Mutex
	logsCh       chan solana.LogNotification
	programCh    chan solana.ProgramNotification
	LogsFilter   solana.LogsFilter
	ProgFilter   solana.ProgramFilter
	SubscribeErr error
	closed       bool
}

// NewWSClient creates a new stub WebSocket client.
func NewWSClient() *WSClient {
	return &WSClient{}
}

// SubscribeLogs records the filter and returns a channel fed by PushLog.
func (c *WSClient) SubscribeLogs(_ context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LogsFilter = filter
	c.logsCh = make(chan solana.LogNotification, 64)
	return c.logsCh, nil
}

// SubscribeProgram records the filter and returns a channel fed by PushProgram.
func (c *WSClient) SubscribeProgram(_ context.Context, filter solana.ProgramFilter) (<-chan solana.ProgramNotification, error) {
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ProgFilter = filter
	c.programCh = make(chan solana.ProgramNotification, 64)
	return c.programCh, nil
}

// LastLogsFilter returns the filter from the most recent SubscribeLogs call.
func (c *WSClient) LastLogsFilter() solana.LogsFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LogsFilter
}

// LastProgramFilter returns the filter from the most recent SubscribeProgram call.
func (c *WSClient) LastProgramFilter() solana.ProgramFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ProgFilter
}

// PushLog delivers a log notification, waiting briefly for a subscriber.
func (c *WSClient) PushLog(n solana.LogNotification) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		ch := c.logsCh
		c.mu.Unlock()
		if ch != nil {
			ch <- n
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// PushProgram delivers a program notification, waiting briefly for a subscriber.
func (c *WSClient) PushProgram(n solana.ProgramNotification) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		ch := c.programCh
		c.mu.Unlock()
		if ch != nil {
			ch <- n
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// Close closes any open subscription channels.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.logsCh != nil {
		close(c.logsCh)
	}
	if c.programCh != nil {
		close(c.programCh)
	}
	return nil
}

package jupiter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentedClient wraps a Client and records quote latency.
type InstrumentedClient struct {
	next    Client
	observe prometheus.Observer
}

// Instrument decorates next with latency observation on Quote calls.
func Instrument(next Client, observe prometheus.Observer) *InstrumentedClient {
	return &InstrumentedClient{next: next, observe: observe}
}

func (c *InstrumentedClient) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	start := time.Now()
	quote, err := c.next.Quote(ctx, inputMint, outputMint, amount, slippageBps)
	c.observe.Observe(time.Since(start).Seconds())
	return quote, err
}

func (c *InstrumentedClient) BuildSwap(ctx context.Context, quote *Quote, userPublicKey string) (*SwapTransaction, error) {
	return c.next.BuildSwap(ctx, quote, userPublicKey)
}

package jupiter

import (
	"context"
	"errors"
	"testing"
)

type staticClient struct {
	quote *Quote
	err   error
}

func (s *staticClient) Quote(context.Context, string, string, uint64, int) (*Quote, error) {
	return s.quote, s.err
}

func (s *staticClient) BuildSwap(context.Context, *Quote, string) (*SwapTransaction, error) {
	return nil, errors.New("not implemented")
}

type countObserver struct {
	calls int
}

func (c *countObserver) Observe(float64) { c.calls++ }

func TestInstrumentObservesQuotes(t *testing.T) {
	observer := &countObserver{}
	inner := &staticClient{quote: &Quote{OutAmount: 42}}
	client := Instrument(inner, observer)

	quote, err := client.Quote(context.Background(), "a", "b", 100, 50)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.OutAmount != 42 {
		t.Errorf("outAmount = %d, want 42", quote.OutAmount)
	}
	if observer.calls != 1 {
		t.Errorf("observations = %d, want 1", observer.calls)
	}
}

func TestInstrumentObservesErrors(t *testing.T) {
	observer := &countObserver{}
	client := Instrument(&staticClient{err: errors.New("down")}, observer)

	if _, err := client.Quote(context.Background(), "a", "b", 100, 50); err == nil {
		t.Fatal("expected error")
	}
	if observer.calls != 1 {
		t.Errorf("observations = %d, want 1", observer.calls)
	}
}

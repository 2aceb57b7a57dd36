package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForFailureSkipsNilResults(t *testing.T) {
	errCh := make(chan error, 2)
	errCh <- nil
	wsErr := errors.New("websocket closed")
	errCh <- wsErr

	err := waitForFailure(context.Background(), errCh)
	if err != wsErr {
		t.Fatalf("waitForFailure = %v, want %v", err, wsErr)
	}
}

func TestWaitForFailureReturnsFirstError(t *testing.T) {
	errCh := make(chan error, 1)
	first := errors.New("monitor failed")
	errCh <- first

	err := waitForFailure(context.Background(), errCh)
	if err != first {
		t.Fatalf("waitForFailure = %v, want %v", err, first)
	}
}

func TestWaitForFailureHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	errCh <- nil

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := waitForFailure(ctx, errCh)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("waitForFailure = %v, want context.Canceled", err)
	}
}

package executor

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/jupiter"
	"solana-pool-sniper/internal/solana"
	"solana-pool-sniper/internal/solana/stub"
	"solana-pool-sniper/internal/wallet"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// fakeSwap implements jupiter.Client with canned responses.
type fakeSwap struct {
	quote      *jupiter.Quote
	quoteErr   error
	buildCalls atomic.Int32
	txBase64   string
	buildErr   error
}

func (f *fakeSwap) Quote(context.Context, string, string, uint64, int) (*jupiter.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeSwap) BuildSwap(context.Context, *jupiter.Quote, string) (*jupiter.SwapTransaction, error) {
	f.buildCalls.Add(1)
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &jupiter.SwapTransaction{TxBase64: f.txBase64, LastValidBlockHeight: 250000000}, nil
}

func testWallet(t *testing.T) (*wallet.Wallet, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	w, err := wallet.New(base58.Encode(priv))
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	return w, pub
}

func goodQuote() *jupiter.Quote {
	return &jupiter.Quote{
		InputMint:      solana.WSOL,
		OutputMint:     testMint,
		InAmount:       100_000_000,
		OutAmount:      5_000_000_000,
		PriceImpactPct: 2,
		SlippageBps:    100,
		Raw:            json.RawMessage(`{}`),
	}
}

func testCandidate() domain.PoolCandidate {
	return domain.PoolCandidate{
		Address:     testMint,
		PoolID:      "Pool111",
		BaseMint:    testMint,
		QuoteMint:   solana.WSOL,
		Method:      domain.MethodLogs,
		TxSignature: "DetectSig111",
		Slot:        1234,
	}
}

func testMetrics() domain.TokenMetrics {
	return domain.TokenMetrics{Address: testMint, Symbol: "NEWT", Name: "New Token", Price: 0.01}
}

func snipeConfig(dryRun bool) config.SnipeConfig {
	return config.SnipeConfig{
		AmountLamports:  100_000_000,
		SlippageBps:     100,
		MaxPriceImpact:  20,
		DryRun:          dryRun,
		ConfirmAttempts: 3,
		ConfirmInterval: time.Millisecond,
	}
}

func newTestExecutor(t *testing.T, swap jupiter.Client, rpc solana.RPCClient, w *wallet.Wallet, cfg config.SnipeConfig) *Executor {
	t.Helper()
	e, err := New(Options{
		Swap:   swap,
		RPC:    rpc,
		Wallet: w,
		Config: cfg,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func TestExecuteDryRun(t *testing.T) {
	w, _ := testWallet(t)
	swap := &fakeSwap{quote: goodQuote(), txBase64: buildWireTx(1, []byte{0x01, 0x00, 0x01})}
	rpc := stub.NewRPCClient()

	e := newTestExecutor(t, swap, rpc, w, snipeConfig(true))

	record, err := e.Execute(context.Background(), testCandidate(), testMetrics())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if record.TxSignature != domain.DryRunSignature {
		t.Errorf("expected %s, got %s", domain.DryRunSignature, record.TxSignature)
	}
	if !record.DryRun {
		t.Error("expected dry-run record")
	}
	if rpc.SentCount() != 0 {
		t.Errorf("expected no submission in dry run, got %d", rpc.SentCount())
	}
	if swap.buildCalls.Load() != 1 {
		t.Errorf("expected build step to still run in dry run, got %d calls", swap.buildCalls.Load())
	}
	if record.TokensReceived != 5_000_000_000 {
		t.Errorf("unexpected tokens received %d", record.TokensReceived)
	}
	if record.SpentLamports != 100_000_000 {
		t.Errorf("unexpected spend %d", record.SpentLamports)
	}
	if record.AttemptID == "" {
		t.Error("expected attempt id")
	}
}

func TestExecuteDryRunWithoutWallet(t *testing.T) {
	swap := &fakeSwap{quote: goodQuote()}
	rpc := stub.NewRPCClient()

	e := newTestExecutor(t, swap, rpc, nil, snipeConfig(true))

	record, err := e.Execute(context.Background(), testCandidate(), testMetrics())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if record.TxSignature != domain.DryRunSignature {
		t.Errorf("expected %s, got %s", domain.DryRunSignature, record.TxSignature)
	}
	if swap.buildCalls.Load() != 0 {
		t.Error("expected no build call without a wallet")
	}
}

func TestExecuteLiveSignsAndSubmits(t *testing.T) {
	w, pub := testWallet(t)
	message := []byte{0x01, 0x00, 0x01, 0xEE, 0xFF}
	swap := &fakeSwap{quote: goodQuote(), txBase64: buildWireTx(1, message)}

	rpc := stub.NewRPCClient()
	rpc.SendSignature = "LiveSig111"
	rpc.Statuses["LiveSig111"] = &solana.SignatureStatus{ConfirmationStatus: "confirmed"}

	e := newTestExecutor(t, swap, rpc, w, snipeConfig(false))

	record, err := e.Execute(context.Background(), testCandidate(), testMetrics())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if record.TxSignature != "LiveSig111" {
		t.Errorf("expected LiveSig111, got %s", record.TxSignature)
	}
	if record.DryRun {
		t.Error("expected live record")
	}
	if rpc.SentCount() != 1 {
		t.Fatalf("expected 1 submission, got %d", rpc.SentCount())
	}

	// The submitted transaction carries a valid fee-payer signature over
	// the message bytes.
	raw, err := base64.StdEncoding.DecodeString(rpc.Sent[0])
	if err != nil {
		t.Fatalf("decode submitted tx: %v", err)
	}
	sig := raw[1 : 1+signatureLen]
	if !ed25519.Verify(pub, message, sig) {
		t.Error("submitted transaction signature does not verify")
	}
}

func TestExecuteRejectsHighPriceImpact(t *testing.T) {
	w, _ := testWallet(t)
	quote := goodQuote()
	quote.PriceImpactPct = 35
	swap := &fakeSwap{quote: quote}
	rpc := stub.NewRPCClient()

	e := newTestExecutor(t, swap, rpc, w, snipeConfig(false))

	if _, err := e.Execute(context.Background(), testCandidate(), testMetrics()); err == nil {
		t.Fatal("expected rejection for high price impact")
	}
	if swap.buildCalls.Load() != 0 {
		t.Error("expected no build after quote rejection")
	}
	if rpc.SentCount() != 0 {
		t.Error("expected no submission after quote rejection")
	}
}

func TestExecuteRejectsExcessiveSlippage(t *testing.T) {
	w, _ := testWallet(t)
	quote := goodQuote()
	quote.SlippageBps = 900
	swap := &fakeSwap{quote: quote}

	e := newTestExecutor(t, swap, stub.NewRPCClient(), w, snipeConfig(false))

	if _, err := e.Execute(context.Background(), testCandidate(), testMetrics()); err == nil {
		t.Error("expected rejection for excessive slippage")
	}
}

func TestExecuteRejectsZeroOutput(t *testing.T) {
	w, _ := testWallet(t)
	quote := goodQuote()
	quote.OutAmount = 0
	swap := &fakeSwap{quote: quote}

	e := newTestExecutor(t, swap, stub.NewRPCClient(), w, snipeConfig(false))

	if _, err := e.Execute(context.Background(), testCandidate(), testMetrics()); err == nil {
		t.Error("expected rejection for zero output")
	}
}

func TestExecuteOnChainFailure(t *testing.T) {
	w, _ := testWallet(t)
	swap := &fakeSwap{quote: goodQuote(), txBase64: buildWireTx(1, []byte{0x01, 0x00})}

	rpc := stub.NewRPCClient()
	rpc.SendSignature = "FailSig111"
	rpc.Statuses["FailSig111"] = &solana.SignatureStatus{
		ConfirmationStatus: "confirmed",
		Err:                map[string]interface{}{"InstructionError": []interface{}{2, "Custom"}},
	}

	e := newTestExecutor(t, swap, rpc, w, snipeConfig(false))

	if _, err := e.Execute(context.Background(), testCandidate(), testMetrics()); err == nil {
		t.Error("expected error for on-chain failure")
	}
}

func TestExecuteConfirmationTimeout(t *testing.T) {
	w, _ := testWallet(t)
	swap := &fakeSwap{quote: goodQuote(), txBase64: buildWireTx(1, []byte{0x01, 0x00})}

	rpc := stub.NewRPCClient()
	// No status recorded: every poll sees an unknown signature.

	e := newTestExecutor(t, swap, rpc, w, snipeConfig(false))

	if _, err := e.Execute(context.Background(), testCandidate(), testMetrics()); err == nil {
		t.Error("expected error when confirmation never arrives")
	}
}

func TestNewRequiresWalletInLiveMode(t *testing.T) {
	_, err := New(Options{Config: snipeConfig(false)})
	if err == nil {
		t.Error("expected error for live mode without wallet")
	}
}

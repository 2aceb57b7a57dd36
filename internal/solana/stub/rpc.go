// Package stub provides in-memory solana client implementations for testing.
package stub

import (
	"context"
	"errors"
	"sync"

	"solana-pool-sniper/internal/solana"
)

// ErrNotFound is returned when a stubbed record is missing.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu              sync.Mutex
	Transactions    map[string]*solana.Transaction
	Accounts        map[string]*solana.AccountInfo
	Supplies        map[string]*solana.TokenAmount
	LargestAccounts map[string][]solana.TokenAccountBalance
	Statuses        map[string]*solana.SignatureStatus

	// SendErr forces SendTransaction to fail.
	SendErr error
	// SendSignature is returned from SendTransaction.
	SendSignature string
	// Sent collects submitted base64 transactions.
	Sent []string

	// TransactionErr forces GetTransaction to fail.
	TransactionErr error
	// AccountErr forces GetAccountInfo to fail.
	AccountErr error
	// SupplyErr forces GetTokenSupply to fail.
	SupplyErr error
	// LargestErr forces GetTokenLargestAccounts to fail.
	LargestErr error
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions:    make(map[string]*solana.Transaction),
		Accounts:        make(map[string]*solana.AccountInfo),
		Supplies:        make(map[string]*solana.TokenAmount),
		LargestAccounts: make(map[string][]solana.TokenAccountBalance),
		Statuses:        make(map[string]*solana.SignatureStatus),
		SendSignature:   "StubSignature",
	}
}

// GetTransaction retrieves a transaction from the stub store.
// Missing signatures return nil without error, matching the HTTP client.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if c.TransactionErr != nil {
		return nil, c.TransactionErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

// GetAccountInfo retrieves account info from the stub store.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if c.AccountErr != nil {
		return nil, c.AccountErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetTokenSupply retrieves a token supply from the stub store.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	if c.SupplyErr != nil {
		return nil, c.SupplyErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	supply, ok := c.Supplies[mint]
	if !ok {
		return nil, ErrNotFound
	}
	return supply, nil
}

// GetTokenLargestAccounts retrieves holder balances from the stub store.
func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.TokenAccountBalance, error) {
	if c.LargestErr != nil {
		return nil, c.LargestErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LargestAccounts[mint], nil
}

// SendTransaction records the submission and returns the stub signature.
func (c *RPCClient) SendTransaction(_ context.Context, txBase64 string) (string, error) {
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, txBase64)
	return c.SendSignature, nil
}

// SentCount reports how many transactions were submitted.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// GetSignatureStatuses retrieves statuses from the stub store.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}

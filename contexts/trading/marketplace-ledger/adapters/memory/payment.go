package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	errUnknownAccount      = errors.New("payment account does not exist")
	errInsufficientBalance = errors.New("payment balance is insufficient")
	errInvalidTransfer     = errors.New("payment transfer input is invalid")
)

// PaymentLedger is an in-memory account ledger backing the PaymentLedger
// port in tests and the in-memory runtime.
type PaymentLedger struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

func NewPaymentLedger() *PaymentLedger {
	return &PaymentLedger{balances: make(map[string]uint64)}
}

// Deposit credits an account out of thin air. Test and bootstrap seeding only.
func (p *PaymentLedger) Deposit(account string, amount uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[strings.TrimSpace(account)] += amount
}

func (p *PaymentLedger) BalanceOf(_ context.Context, account string) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[strings.TrimSpace(account)], nil
}

func (p *PaymentLedger) Transfer(_ context.Context, from string, to string, amount uint64) error {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" || from == to {
		return errInvalidTransfer
	}
	if amount == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	balance, ok := p.balances[from]
	if !ok {
		return errUnknownAccount
	}
	if balance < amount {
		return errInsufficientBalance
	}
	p.balances[from] = balance - amount
	p.balances[to] += amount
	return nil
}

package token

import (
	"context"
	"sync"
	"time"

	"tokenvault/internal/vault/address"
	id "tokenvault/pkg/domain"
)

// InMemoryLedger keeps holders in a map behind a single mutex. Every
// mutation is atomic with respect to every other.
type InMemoryLedger struct {
	mu       sync.RWMutex
	holders  map[id.Address]Holder
	resolver *address.Resolver
	now      func() time.Time
}

// NewInMemoryLedger builds an empty ledger. resolver verifies derived
// authority proofs.
func NewInMemoryLedger(resolver *address.Resolver) *InMemoryLedger {
	return &InMemoryLedger{
		holders:  make(map[id.Address]Holder),
		resolver: resolver,
		now:      time.Now,
	}
}

// Open creates a holder. Reopening with the same asset and owner returns the
// existing holder; any other collision is KindAccountExists.
func (l *InMemoryLedger) Open(_ context.Context, req OpenRequest) (*Holder, error) {
	if err := validateOpen(req); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.holders[req.Address]; ok {
		if !sameHolder(&existing, req) {
			return nil, newError(KindAccountExists, req.Address, "holder exists with different asset or owner")
		}
		return &existing, nil
	}
	h := Holder{
		Address:   req.Address,
		Asset:     req.Asset,
		Owner:     req.Owner,
		CreatedAt: l.now(),
	}
	l.holders[req.Address] = h
	return &h, nil
}

func (l *InMemoryLedger) Holder(_ context.Context, addr id.Address) (*Holder, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.holders[addr]
	if !ok {
		return nil, newError(KindAccountNotFound, addr, "holder does not exist")
	}
	return &h, nil
}

// Transfer moves value atomically.
func (l *InMemoryLedger) Transfer(ctx context.Context, req TransferRequest) error {
	return l.TransferAndCommit(ctx, req, nil)
}

// TransferAndCommit validates req, runs commit and applies the balances, all
// inside the ledger's critical section. If commit fails no balance changes.
// Callers use it to publish staged bookkeeping in the same atomic step as the
// value movement.
func (l *InMemoryLedger) TransferAndCommit(ctx context.Context, req TransferRequest, commit func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.holders[req.From]
	if !ok {
		return newError(KindAccountNotFound, req.From, "source holder does not exist")
	}
	to, ok := l.holders[req.To]
	if !ok {
		return newError(KindAccountNotFound, req.To, "destination holder does not exist")
	}
	if req.From == req.To {
		// Same map entry: a self transfer validates but moves nothing.
		to = from
	}
	if err := execute(l.resolver, &from, &to, req); err != nil {
		return err
	}
	if commit != nil {
		if err := commit(); err != nil {
			return err
		}
	}
	l.holders[from.Address] = from
	l.holders[to.Address] = to
	return nil
}

// Mint credits amount to a holder out of thin air. Operator use only.
func (l *InMemoryLedger) Mint(_ context.Context, addr id.Address, amount uint64) (*Holder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holders[addr]
	if !ok {
		return nil, newError(KindAccountNotFound, addr, "holder does not exist")
	}
	if err := mint(&h, amount); err != nil {
		return nil, err
	}
	l.holders[addr] = h
	return &h, nil
}

// SetFrozen freezes or thaws a holder.
func (l *InMemoryLedger) SetFrozen(_ context.Context, addr id.Address, frozen bool) (*Holder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holders[addr]
	if !ok {
		return nil, newError(KindAccountNotFound, addr, "holder does not exist")
	}
	h.Frozen = frozen
	l.holders[addr] = h
	return &h, nil
}

package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tokenvault/internal/vault/address"
	id "tokenvault/pkg/domain"
	txcontext "tokenvault/pkg/platform/tx"
)

// PostgresLedger persists holders in the token_holders table. When the
// context carries a *sql.Tx (see pkg/platform/tx) every statement joins it,
// so a caller can make a transfer part of a wider unit of work.
type PostgresLedger struct {
	db       *sql.DB
	resolver *address.Resolver
}

// NewPostgresLedger constructs a PostgreSQL-backed ledger.
func NewPostgresLedger(db *sql.DB, resolver *address.Resolver) *PostgresLedger {
	return &PostgresLedger{db: db, resolver: resolver}
}

func (l *PostgresLedger) inTx(ctx context.Context, fn func(q txcontext.Querier) error) error {
	return txcontext.Run(ctx, l.db, fn)
}

func (l *PostgresLedger) Open(ctx context.Context, req OpenRequest) (*Holder, error) {
	if err := validateOpen(req); err != nil {
		return nil, err
	}
	var opened *Holder
	err := l.inTx(ctx, func(q txcontext.Querier) error {
		query := `
			INSERT INTO token_holders (address, asset, owner, balance, frozen, created_at)
			VALUES ($1, $2, $3, 0, FALSE, $4)
			ON CONFLICT (address) DO NOTHING
		`
		if _, err := q.ExecContext(ctx, query, req.Address[:], req.Asset[:], req.Owner[:], time.Now()); err != nil {
			return fmt.Errorf("insert holder: %w", err)
		}
		h, err := l.load(ctx, q, req.Address, false)
		if err != nil {
			return err
		}
		if !sameHolder(h, req) {
			return newError(KindAccountExists, req.Address, "holder exists with different asset or owner")
		}
		opened = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

func (l *PostgresLedger) Holder(ctx context.Context, addr id.Address) (*Holder, error) {
	return l.load(ctx, txcontext.Conn(ctx, l.db), addr, false)
}

// Transfer locks both rows in address order, validates and writes the new
// balances in one transaction.
func (l *PostgresLedger) Transfer(ctx context.Context, req TransferRequest) error {
	return l.inTx(ctx, func(q txcontext.Querier) error {
		first, second := req.From, req.To
		if second.Less(first) {
			first, second = second, first
		}
		locked := make(map[id.Address]*Holder, 2)
		for _, addr := range []id.Address{first, second} {
			if _, ok := locked[addr]; ok {
				continue
			}
			h, err := l.load(ctx, q, addr, true)
			if err != nil {
				var te *Error
				if errors.As(err, &te) && te.Kind == KindAccountNotFound {
					if addr == req.From {
						return newError(KindAccountNotFound, addr, "source holder does not exist")
					}
					return newError(KindAccountNotFound, addr, "destination holder does not exist")
				}
				return err
			}
			locked[addr] = h
		}
		from, to := locked[req.From], locked[req.To]
		if err := execute(l.resolver, from, to, req); err != nil {
			return err
		}
		if req.From == req.To {
			return nil
		}
		if err := l.writeBalance(ctx, q, from); err != nil {
			return err
		}
		return l.writeBalance(ctx, q, to)
	})
}

func (l *PostgresLedger) Mint(ctx context.Context, addr id.Address, amount uint64) (*Holder, error) {
	var minted *Holder
	err := l.inTx(ctx, func(q txcontext.Querier) error {
		h, err := l.load(ctx, q, addr, true)
		if err != nil {
			return err
		}
		if err := mint(h, amount); err != nil {
			return err
		}
		if err := l.writeBalance(ctx, q, h); err != nil {
			return err
		}
		minted = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

func (l *PostgresLedger) SetFrozen(ctx context.Context, addr id.Address, frozen bool) (*Holder, error) {
	var updated *Holder
	err := l.inTx(ctx, func(q txcontext.Querier) error {
		h, err := l.load(ctx, q, addr, true)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `UPDATE token_holders SET frozen = $2 WHERE address = $1`, addr[:], frozen); err != nil {
			return fmt.Errorf("update holder frozen: %w", err)
		}
		h.Frozen = frozen
		updated = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (l *PostgresLedger) load(ctx context.Context, q txcontext.Querier, addr id.Address, forUpdate bool) (*Holder, error) {
	query := `
		SELECT address, asset, owner, balance::text, frozen, created_at
		FROM token_holders
		WHERE address = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		rawAddr, rawAsset, rawOwner []byte
		balance                     string
		h                           Holder
	)
	err := q.QueryRowContext(ctx, query, addr[:]).Scan(&rawAddr, &rawAsset, &rawOwner, &balance, &h.Frozen, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(KindAccountNotFound, addr, "holder does not exist")
		}
		return nil, fmt.Errorf("load holder: %w", err)
	}
	if h.Address, err = id.AddressFromBytes(rawAddr); err != nil {
		return nil, fmt.Errorf("decode holder address: %w", err)
	}
	if h.Asset, err = id.AddressFromBytes(rawAsset); err != nil {
		return nil, fmt.Errorf("decode holder asset: %w", err)
	}
	if h.Owner, err = id.AddressFromBytes(rawOwner); err != nil {
		return nil, fmt.Errorf("decode holder owner: %w", err)
	}
	if h.Balance, err = strconv.ParseUint(balance, 10, 64); err != nil {
		return nil, fmt.Errorf("decode holder balance: %w", err)
	}
	return &h, nil
}

func (l *PostgresLedger) writeBalance(ctx context.Context, q txcontext.Querier, h *Holder) error {
	_, err := q.ExecContext(ctx,
		`UPDATE token_holders SET balance = $2::text::numeric WHERE address = $1`,
		h.Address[:], strconv.FormatUint(h.Balance, 10),
	)
	if err != nil {
		return fmt.Errorf("update holder balance: %w", err)
	}
	return nil
}

//go:build integration

package token_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/testutil/containers"
	txcontext "tokenvault/pkg/platform/tx"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	resolver *address.Resolver
	ledger   *token.PostgresLedger
	asset    id.Address
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func fill(b byte) id.Address {
	var a id.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func (s *PostgresLedgerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.resolver = address.New(fill(0xEE))
	s.ledger = token.NewPostgresLedger(s.postgres.DB, s.resolver)
	s.asset = fill(0xA1)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "token_holders"))
}

func (s *PostgresLedgerSuite) open(holder, owner id.Address, balance uint64) {
	ctx := context.Background()
	_, err := s.ledger.Open(ctx, token.OpenRequest{Address: holder, Asset: s.asset, Owner: owner})
	s.Require().NoError(err)
	if balance > 0 {
		_, err = s.ledger.Mint(ctx, holder, balance)
		s.Require().NoError(err)
	}
}

func (s *PostgresLedgerSuite) balance(holder id.Address) uint64 {
	h, err := s.ledger.Holder(context.Background(), holder)
	s.Require().NoError(err)
	return h.Balance
}

func (s *PostgresLedgerSuite) TestOpenIsIdempotentForSameOwner() {
	ctx := context.Background()
	s.open(fill(0x21), fill(0x11), 40)

	h, err := s.ledger.Open(ctx, token.OpenRequest{Address: fill(0x21), Asset: s.asset, Owner: fill(0x11)})
	s.Require().NoError(err)
	s.Equal(uint64(40), h.Balance)

	_, err = s.ledger.Open(ctx, token.OpenRequest{Address: fill(0x21), Asset: s.asset, Owner: fill(0x12)})
	s.True(token.IsKind(err, token.KindAccountExists))
}

func (s *PostgresLedgerSuite) TestTransferRoundTrip() {
	ctx := context.Background()
	s.open(fill(0x21), fill(0x11), 100)
	s.open(fill(0x22), fill(0x12), 0)

	err := s.ledger.Transfer(ctx, token.TransferRequest{
		From: fill(0x21), To: fill(0x22), Amount: 35, Auth: token.SignedBy(fill(0x11)),
	})
	s.Require().NoError(err)
	s.Equal(uint64(65), s.balance(fill(0x21)))
	s.Equal(uint64(35), s.balance(fill(0x22)))

	err = s.ledger.Transfer(ctx, token.TransferRequest{
		From: fill(0x21), To: fill(0x22), Amount: 66, Auth: token.SignedBy(fill(0x11)),
	})
	s.True(token.IsKind(err, token.KindInsufficientFunds))
	s.Equal(uint64(65), s.balance(fill(0x21)))
}

func (s *PostgresLedgerSuite) TestTransferJoinsContextTransaction() {
	s.open(fill(0x21), fill(0x11), 100)
	s.open(fill(0x22), fill(0x12), 0)

	tx, err := s.postgres.DB.BeginTx(context.Background(), nil)
	s.Require().NoError(err)
	ctx := txcontext.WithTx(context.Background(), tx)

	err = s.ledger.Transfer(ctx, token.TransferRequest{
		From: fill(0x21), To: fill(0x22), Amount: 10, Auth: token.SignedBy(fill(0x11)),
	})
	s.Require().NoError(err)
	s.Require().NoError(tx.Rollback())

	s.Equal(uint64(100), s.balance(fill(0x21)), "rolled back transfer leaves balances untouched")
	s.Equal(uint64(0), s.balance(fill(0x22)))
}

// TestConcurrentTransfersConserveSupply moves value back and forth between
// two holders from many goroutines; the row locks keep the total constant.
func (s *PostgresLedgerSuite) TestConcurrentTransfersConserveSupply() {
	ctx := context.Background()
	a, b := fill(0x21), fill(0x22)
	s.open(a, fill(0x11), 500)
	s.open(b, fill(0x12), 500)

	const goroutines = 40
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := token.TransferRequest{From: a, To: b, Amount: 3, Auth: token.SignedBy(fill(0x11))}
			if i%2 == 1 {
				req = token.TransferRequest{From: b, To: a, Amount: 5, Auth: token.SignedBy(fill(0x12))}
			}
			_ = s.ledger.Transfer(ctx, req)
		}(i)
	}
	wg.Wait()

	s.Equal(uint64(1000), s.balance(a)+s.balance(b))
	s.Equal(uint64(500-20*3+20*5), s.balance(a))
}

func (s *PostgresLedgerSuite) TestFrozenHolderRejectsTransfer() {
	ctx := context.Background()
	s.open(fill(0x21), fill(0x11), 10)
	s.open(fill(0x22), fill(0x12), 0)

	_, err := s.ledger.SetFrozen(ctx, fill(0x22), true)
	s.Require().NoError(err)

	err = s.ledger.Transfer(ctx, token.TransferRequest{
		From: fill(0x21), To: fill(0x22), Amount: 1, Auth: token.SignedBy(fill(0x11)),
	})
	s.True(token.IsKind(err, token.KindAccountFrozen))
}

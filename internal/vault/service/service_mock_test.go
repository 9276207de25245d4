package service_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Ledger,Transferer,VaultTx,AuditPublisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	"tokenvault/internal/vault/models"
	"tokenvault/internal/vault/service"
	"tokenvault/internal/vault/service/mocks"
	"tokenvault/internal/vault/store"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
)

// =============================================================================
// Collaborator Failure Test Suite
// =============================================================================
// Failures of the store, the audit publisher and the transaction runner
// are hard to provoke with the real implementations.

type CollaboratorFailureSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	ctx       context.Context
	resolver  *address.Resolver
	ledger    *token.InMemoryLedger
	store     *store.InMemory
	mockAudit *mocks.MockAuditPublisher
	asset     id.Address
	owner     id.Address
	wallet    id.Address
	access    id.Address
	pool      id.Address
}

func TestCollaboratorFailureSuite(t *testing.T) {
	suite.Run(t, new(CollaboratorFailureSuite))
}

func (s *CollaboratorFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.resolver = address.New(fill(0xEE))
	s.ledger = token.NewInMemoryLedger(s.resolver)
	s.store = store.NewInMemory()
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.asset, s.owner, s.wallet = fill(0xA1), fill(0x01), fill(0x11)

	_, err := s.ledger.Open(s.ctx, token.OpenRequest{Address: s.wallet, Asset: s.asset, Owner: s.owner})
	s.Require().NoError(err)
	_, err = s.ledger.Mint(s.ctx, s.wallet, 100)
	s.Require().NoError(err)

	// Lifecycle runs without an audit publisher so the mock only sees the
	// operations under test.
	setup := s.newService(s.store, service.NewKeyedTx(s.store, s.ledger, 0), false)
	pool, _, err := setup.InitializePool(s.ctx, s.asset)
	s.Require().NoError(err)
	s.pool = pool.Address
	derived, err := s.resolver.Access(s.asset, s.owner)
	s.Require().NoError(err)
	s.access = derived.Address
	_, _, err = setup.InitializeAccess(s.ctx, models.InitializeAccessRequest{Asset: s.asset, Owner: s.owner, Access: s.access})
	s.Require().NoError(err)
}

func (s *CollaboratorFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CollaboratorFailureSuite) newService(st service.Store, tx service.VaultTx, withAudit bool) *service.Service {
	opts := []service.Option{}
	if withAudit {
		opts = append(opts, service.WithAuditPublisher(s.mockAudit))
	}
	svc, err := service.New(s.resolver, st, s.ledger, tx, opts...)
	s.Require().NoError(err)
	return svc
}

func (s *CollaboratorFailureSuite) depositRequest(amount uint64) models.DepositRequest {
	return models.DepositRequest{Requester: s.owner, Source: s.wallet, Pool: s.pool, Access: s.access, Amount: amount}
}

func (s *CollaboratorFailureSuite) TestAuditFailureAbortsDeposit() {
	svc := s.newService(s.store, service.NewKeyedTx(s.store, s.ledger, 0), true)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))

	_, err := svc.Deposit(s.ctx, s.depositRequest(10))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	record, err := s.store.FindAccess(s.ctx, s.access)
	s.Require().NoError(err)
	s.Equal(uint64(0), record.Owed)
	holder, err := s.ledger.Holder(s.ctx, s.wallet)
	s.Require().NoError(err)
	s.Equal(uint64(100), holder.Balance)
}

func (s *CollaboratorFailureSuite) TestAuditEventDescribesDeposit() {
	svc := s.newService(s.store, service.NewKeyedTx(s.store, s.ledger, 0), true)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event audit.Event) error {
		s.Equal(string(audit.EventDeposited), event.Action)
		s.Equal(s.owner.String(), event.Subject)
		s.Equal(s.access.String(), event.Access)
		s.Equal(uint64(10), event.Amount)
		return nil
	})

	_, err := svc.Deposit(s.ctx, s.depositRequest(10))
	s.Require().NoError(err)
}

func (s *CollaboratorFailureSuite) TestStoreFailureIsInternal() {
	mockStore := mocks.NewMockStore(s.ctrl)
	svc := s.newService(mockStore, service.NewKeyedTx(mockStore, s.ledger, 0), false)
	mockStore.EXPECT().FindAccess(gomock.Any(), s.access).Return(nil, errors.New("connection reset"))

	_, err := svc.Deposit(s.ctx, s.depositRequest(10))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	holder, err := s.ledger.Holder(s.ctx, s.wallet)
	s.Require().NoError(err)
	s.Equal(uint64(100), holder.Balance)
}

func (s *CollaboratorFailureSuite) TestTransactionRunnerKeyedByAccess() {
	mockTx := mocks.NewMockVaultTx(s.ctrl)
	svc := s.newService(s.store, mockTx, false)
	mockTx.EXPECT().RunInTx(gomock.Any(), s.access, gomock.Any()).Return(dErrors.New(dErrors.CodeUnavailable, "lock not acquired"))

	_, err := svc.Deposit(s.ctx, s.depositRequest(10))
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *CollaboratorFailureSuite) TestTransferErrorPropagatesUnmodified() {
	mockTx := mocks.NewMockVaultTx(s.ctrl)
	mockTransfer := mocks.NewMockTransferer(s.ctrl)
	svc := s.newService(s.store, mockTx, false)
	rejection := &token.Error{Kind: token.KindAccountFrozen, Account: s.wallet, Message: "source holder is frozen"}

	mockTx.EXPECT().RunInTx(gomock.Any(), s.access, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ id.Address, fn func(context.Context, service.Store, service.Transferer) error) error {
			return fn(ctx, s.store, mockTransfer)
		})
	mockTransfer.EXPECT().Transfer(gomock.Any(), token.TransferRequest{
		From: s.wallet, To: s.pool, Amount: 10, Auth: token.SignedBy(s.owner),
	}).Return(rejection)

	_, err := svc.Deposit(s.ctx, s.depositRequest(10))
	s.Same(rejection, err)
}

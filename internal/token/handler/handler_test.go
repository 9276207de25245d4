package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	jwttoken "tokenvault/internal/jwt_token"
	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	id "tokenvault/pkg/domain"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/audit/publishers/compliance"
	auditmemory "tokenvault/pkg/platform/audit/store/memory"
	"tokenvault/pkg/testutil"
)

const adminToken = "let-me-in"

func fill(b byte) id.Address {
	var a id.Address
	for i := range a {
		a[i] = b
	}
	return a
}

type fixture struct {
	router   chi.Router
	ledger   *token.InMemoryLedger
	resolver *address.Resolver
	jwt      *jwttoken.JWTService
	audit    *auditmemory.InMemoryStore
}

func newFixture(t *testing.T, adminHash []byte) *fixture {
	t.Helper()
	f := &fixture{
		resolver: address.New(fill(0xEE)),
		jwt:      jwttoken.NewJWTService("signing-key", "tokenvault", "tokenvault-api"),
		audit:    auditmemory.NewInMemoryStore(),
	}
	f.ledger = token.NewInMemoryLedger(f.resolver)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(f.ledger, f.resolver, f.jwt, 15*time.Minute, compliance.New(f.audit), logger, nil, adminHash)
	f.router = chi.NewRouter()
	h.Register(f.router)
	return f
}

func hash(t *testing.T, secret string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func (f *fixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, path, body)
	req.Header.Set("X-Admin-Token", adminToken)
	return testutil.DoRequest(f.router, req)
}

func TestAdminTokenGate(t *testing.T) {
	testutil.Given(t, "admin endpoints without a configured hash", func(t *testing.T) {
		f := newFixture(t, nil)
		testutil.Then(t, "every route is forbidden", func(t *testing.T) {
			rr := f.post(t, "/admin/tokens", map[string]string{"identity": fill(1).String()})
			testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
		})
	})

	testutil.Given(t, "a configured admin hash", func(t *testing.T) {
		f := newFixture(t, hash(t, adminToken))
		testutil.When(t, "the header carries another secret", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/tokens", map[string]string{"identity": fill(1).String()})
			req.Header.Set("X-Admin-Token", "guess")
			rr := testutil.DoRequest(f.router, req)
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})
}

func TestHolderLifecycle(t *testing.T) {
	f := newFixture(t, hash(t, adminToken))
	asset, owner := fill(0xA1), fill(0x01)

	var holder id.Address
	testutil.When(t, "a holder is opened without an address", func(t *testing.T) {
		rr := f.post(t, "/admin/holders", map[string]string{"asset": asset.String(), "owner": owner.String()})
		testutil.AssertStatus(t, rr, http.StatusCreated)

		derived, err := f.resolver.Derive(holderNamespace, asset[:], owner[:])
		require.NoError(t, err)
		holder = derived.Address
		got := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, holder.String(), (*got)["address"])
	})

	testutil.When(t, "the holder is minted", func(t *testing.T) {
		rr := f.post(t, "/admin/holders/"+holder.String()+"/mint", map[string]uint64{"amount": 250})
		testutil.AssertStatus(t, rr, http.StatusOK)
		h, err := f.ledger.Holder(context.Background(), holder)
		require.NoError(t, err)
		assert.Equal(t, uint64(250), h.Balance)
	})

	testutil.When(t, "the holder is frozen", func(t *testing.T) {
		rr := f.post(t, "/admin/holders/"+holder.String()+"/freeze", map[string]bool{"frozen": true})
		testutil.AssertStatus(t, rr, http.StatusOK)
		h, err := f.ledger.Holder(context.Background(), holder)
		require.NoError(t, err)
		assert.True(t, h.Frozen)
	})

	testutil.Then(t, "each operator action is audited", func(t *testing.T) {
		for _, action := range []audit.AuditEvent{audit.EventHolderOpened, audit.EventHolderMinted, audit.EventHolderFrozen} {
			events, err := f.audit.ListByAction(context.Background(), action)
			require.NoError(t, err)
			assert.Len(t, events, 1, string(action))
		}
	})
}

func TestLedgerErrors(t *testing.T) {
	f := newFixture(t, hash(t, adminToken))

	t.Run("mint of unknown holder is not found", func(t *testing.T) {
		rr := f.post(t, "/admin/holders/"+fill(0x77).String()+"/mint", map[string]uint64{"amount": 1})
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("reopening with another owner conflicts", func(t *testing.T) {
		at := fill(0x30)
		rr := f.post(t, "/admin/holders", map[string]string{"address": at.String(), "asset": fill(0xA1).String(), "owner": fill(1).String()})
		testutil.AssertStatus(t, rr, http.StatusCreated)
		rr = f.post(t, "/admin/holders", map[string]string{"address": at.String(), "asset": fill(0xA1).String(), "owner": fill(2).String()})
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("zero mint is a bad request", func(t *testing.T) {
		at := fill(0x31)
		_, err := f.ledger.Open(context.Background(), token.OpenRequest{Address: at, Asset: fill(0xA1), Owner: fill(1)})
		require.NoError(t, err)
		rr := f.post(t, "/admin/holders/"+at.String()+"/mint", map[string]uint64{"amount": 0})
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestIssueTokenRoundTrips(t *testing.T) {
	f := newFixture(t, hash(t, adminToken))
	identity := fill(0x05)

	rr := f.post(t, "/admin/tokens", map[string]string{"identity": identity.String()})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[issueTokenResponse](t, rr)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := f.jwt.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	got, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

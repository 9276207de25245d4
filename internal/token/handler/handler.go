// Package handler exposes operator endpoints for the token ledger: opening
// holders, minting, freezing and issuing development bearer tokens. All
// routes sit behind the admin token.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tokenvault/internal/platform/metrics"
	"tokenvault/internal/platform/middleware"
	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/httputil"
)

// holderNamespace derives the default holder address of (asset, owner).
const holderNamespace = "holder"

const operatorSubject = "operator"

// Ledger is the operator side of the token ledger.
type Ledger interface {
	Open(ctx context.Context, req token.OpenRequest) (*token.Holder, error)
	Mint(ctx context.Context, addr id.Address, amount uint64) (*token.Holder, error)
	SetFrozen(ctx context.Context, addr id.Address, frozen bool) (*token.Holder, error)
}

// TokenIssuer signs bearer tokens for an identity.
type TokenIssuer interface {
	GenerateAccessToken(identity id.Address, expiresIn time.Duration) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Handler struct {
	logger    *slog.Logger
	ledger    Ledger
	resolver  *address.Resolver
	issuer    TokenIssuer
	tokenTTL  time.Duration
	audit     AuditPublisher
	metrics   *metrics.Metrics
	adminHash []byte
}

// New creates an admin Handler. adminHash is the bcrypt hash of the admin
// token; an empty hash disables every route.
func New(
	ledger Ledger,
	resolver *address.Resolver,
	issuer TokenIssuer,
	tokenTTL time.Duration,
	auditPublisher AuditPublisher,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	adminHash []byte) *Handler {
	return &Handler{
		logger:    logger,
		ledger:    ledger,
		resolver:  resolver,
		issuer:    issuer,
		tokenTTL:  tokenTTL,
		audit:     auditPublisher,
		metrics:   metrics,
		adminHash: adminHash,
	}
}

// Register registers the admin routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.Recovery(h.logger))
	adminRouter.Use(middleware.RequestID)
	adminRouter.Use(middleware.RequestTime)
	adminRouter.Use(middleware.ClientMetadata)
	adminRouter.Use(middleware.Logger(h.logger))
	adminRouter.Use(middleware.Timeout(middleware.RequestTimeout))
	adminRouter.Use(middleware.ContentTypeJSON)
	adminRouter.Use(middleware.LatencyMiddleware(h.metrics))
	adminRouter.Use(middleware.RequireAdminToken(h.adminHash, h.logger))
	adminRouter.Post("/holders", h.handleOpenHolder)
	adminRouter.Post("/holders/{address}/mint", h.handleMint)
	adminRouter.Post("/holders/{address}/freeze", h.handleFreeze)
	adminRouter.Post("/tokens", h.handleIssueToken)

	r.Mount("/admin", adminRouter)
}

func (h *Handler) handleOpenHolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req openHolderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid open holder request", err)
		return
	}
	open, err := req.toModel()
	if err != nil {
		h.writeError(ctx, w, "invalid open holder request", err)
		return
	}
	if open.Address.IsZero() {
		derived, err := h.resolver.Derive(holderNamespace, open.Asset[:], open.Owner[:])
		if err != nil {
			h.writeError(ctx, w, "failed to derive holder address", dErrors.Wrap(err, dErrors.CodeInternal, "derivation failed"))
			return
		}
		open.Address = derived.Address
	}

	holder, err := h.ledger.Open(ctx, open)
	if err != nil {
		h.writeError(ctx, w, "failed to open holder", ledgerError(err))
		return
	}
	h.emit(ctx, audit.EventHolderOpened, audit.Event{
		Subject: operatorSubject,
		Asset:   holder.Asset.String(),
		Holder:  holder.Address.String(),
	})
	httputil.WriteJSON(w, http.StatusCreated, holder)
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(ctx, w, "invalid mint request", err)
		return
	}
	var req mintRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid mint request", err)
		return
	}

	holder, err := h.ledger.Mint(ctx, addr, req.Amount)
	if err != nil {
		h.writeError(ctx, w, "failed to mint", ledgerError(err))
		return
	}
	h.emit(ctx, audit.EventHolderMinted, audit.Event{
		Subject: operatorSubject,
		Asset:   holder.Asset.String(),
		Holder:  holder.Address.String(),
		Amount:  req.Amount,
	})
	httputil.WriteJSON(w, http.StatusOK, holder)
}

func (h *Handler) handleFreeze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(ctx, w, "invalid freeze request", err)
		return
	}
	var req freezeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid freeze request", err)
		return
	}

	holder, err := h.ledger.SetFrozen(ctx, addr, req.Frozen)
	if err != nil {
		h.writeError(ctx, w, "failed to set frozen", ledgerError(err))
		return
	}
	h.emit(ctx, audit.EventHolderFrozen, audit.Event{
		Subject: operatorSubject,
		Asset:   holder.Asset.String(),
		Holder:  holder.Address.String(),
	})
	httputil.WriteJSON(w, http.StatusOK, holder)
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req issueTokenRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid issue token request", err)
		return
	}
	identity, err := parseAddress("identity", req.Identity)
	if err != nil {
		h.writeError(ctx, w, "invalid issue token request", err)
		return
	}

	signed, err := h.issuer.GenerateAccessToken(identity, h.tokenTTL)
	if err != nil {
		h.writeError(ctx, w, "failed to issue token", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token"))
		return
	}
	h.emit(ctx, audit.EventTokenIssued, audit.Event{Subject: identity.String()})
	httputil.WriteJSON(w, http.StatusCreated, issueTokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	})
}

// emit records an operator event. The ledger change has already happened,
// so a failed write is logged rather than returned.
func (h *Handler) emit(ctx context.Context, event audit.AuditEvent, e audit.Event) {
	if h.audit == nil {
		return
	}
	e.Action = string(event)
	if err := h.audit.Emit(ctx, e); err != nil {
		h.logger.ErrorContext(ctx, "failed to record operator audit event",
			"request_id", middleware.GetRequestID(ctx),
			"action", e.Action,
			"error", err,
		)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	args := []any{
		"request_id", middleware.GetRequestID(ctx),
		"code", dErrors.CodeOf(err),
		"error", err.Error(),
	}
	if httputil.IsClientError(err) {
		h.logger.WarnContext(ctx, msg, args...)
	} else {
		h.logger.ErrorContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}

// ledgerError gives ledger rejections an HTTP-facing code.
func ledgerError(err error) error {
	te, ok := token.AsError(err)
	if !ok {
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger operation failed")
	}
	switch te.Kind {
	case token.KindAccountNotFound:
		return dErrors.Wrap(te, dErrors.CodeNotFound, te.Message)
	case token.KindAccountExists:
		return dErrors.Wrap(te, dErrors.CodeConflict, te.Message)
	case token.KindInvalidAmount, token.KindInvalidRequest:
		return dErrors.Wrap(te, dErrors.CodeBadRequest, te.Message)
	case token.KindOverflow:
		return dErrors.Wrap(te, dErrors.CodeArithmeticOverflow, te.Message)
	default:
		return dErrors.Wrap(te, dErrors.CodeTransferFailed, te.Message)
	}
}

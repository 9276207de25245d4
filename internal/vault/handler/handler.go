package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tokenvault/internal/platform/metrics"
	"tokenvault/internal/platform/middleware"
	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/httputil"
	"tokenvault/pkg/requestcontext"
)

// Service defines the vault operations exposed over HTTP.
type Service interface {
	InitializePool(ctx context.Context, asset id.Address) (*models.PoolRecord, bool, error)
	GetPool(ctx context.Context, asset id.Address) (*models.PoolView, error)
	InitializeAccess(ctx context.Context, req models.InitializeAccessRequest) (*models.AccessRecord, bool, error)
	GetAccess(ctx context.Context, asset, owner id.Address) (*models.AccessRecord, error)
	Deposit(ctx context.Context, req models.DepositRequest) (*models.AccessRecord, error)
	Withdraw(ctx context.Context, req models.WithdrawRequest) (*models.AccessRecord, error)
}

// Handler handles the /vault endpoints. Every route requires a bearer token;
// the token subject is the requester identity.
type Handler struct {
	logger       *slog.Logger
	vault        Service
	resolver     *address.Resolver
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new vault Handler.
func New(
	vault Service,
	resolver *address.Resolver,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		vault:        vault,
		resolver:     resolver,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the vault routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	vaultRouter := chi.NewRouter()
	vaultRouter.Use(middleware.Recovery(h.logger))
	vaultRouter.Use(middleware.RequestID)
	vaultRouter.Use(middleware.RequestTime)
	vaultRouter.Use(middleware.ClientMetadata)
	vaultRouter.Use(middleware.Logger(h.logger))
	vaultRouter.Use(middleware.Timeout(middleware.RequestTimeout))
	vaultRouter.Use(middleware.ContentTypeJSON)
	vaultRouter.Use(middleware.LatencyMiddleware(h.metrics))
	vaultRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	vaultRouter.Post("/pools", h.handleInitializePool)
	vaultRouter.Get("/pools/{asset}", h.handleGetPool)
	vaultRouter.Post("/access", h.handleInitializeAccess)
	vaultRouter.Get("/access/{asset}", h.handleGetAccess)
	vaultRouter.Post("/deposit", h.handleDeposit)
	vaultRouter.Post("/withdraw", h.handleWithdraw)
	vaultRouter.Get("/derive/{asset}", h.handleDerive)

	r.Mount("/vault", vaultRouter)
}

func (h *Handler) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req initializePoolRequest
	if err := decode(r, &req); err != nil {
		h.writeError(ctx, w, "invalid initialize pool request", err)
		return
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		h.writeError(ctx, w, "invalid initialize pool request", err)
		return
	}

	pool, created, err := h.vault.InitializePool(ctx, asset)
	if err != nil {
		h.writeError(ctx, w, "failed to initialize pool", err)
		return
	}
	httputil.WriteJSON(w, createdStatus(created), pool)
}

func (h *Handler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asset, err := parseAddress("asset", chi.URLParam(r, "asset"))
	if err != nil {
		h.writeError(ctx, w, "invalid get pool request", err)
		return
	}

	view, err := h.vault.GetPool(ctx, asset)
	if err != nil {
		h.writeError(ctx, w, "failed to get pool", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleInitializeAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req initializeAccessRequest
	if err := decode(r, &req); err != nil {
		h.writeError(ctx, w, "invalid initialize access request", err)
		return
	}
	parsed, err := req.toModel(requestcontext.Identity(ctx))
	if err != nil {
		h.writeError(ctx, w, "invalid initialize access request", err)
		return
	}

	record, created, err := h.vault.InitializeAccess(ctx, parsed)
	if err != nil {
		h.writeError(ctx, w, "failed to initialize access record", err)
		return
	}
	httputil.WriteJSON(w, createdStatus(created), record)
}

func (h *Handler) handleGetAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asset, err := parseAddress("asset", chi.URLParam(r, "asset"))
	if err != nil {
		h.writeError(ctx, w, "invalid get access request", err)
		return
	}

	record, err := h.vault.GetAccess(ctx, asset, requestcontext.Identity(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to get access record", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req depositRequest
	if err := decode(r, &req); err != nil {
		h.writeError(ctx, w, "invalid deposit request", err)
		return
	}
	parsed, err := req.toModel(requestcontext.Identity(ctx))
	if err != nil {
		h.writeError(ctx, w, "invalid deposit request", err)
		return
	}

	record, err := h.vault.Deposit(ctx, parsed)
	if err != nil {
		h.writeError(ctx, w, "deposit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req withdrawRequest
	if err := decode(r, &req); err != nil {
		h.writeError(ctx, w, "invalid withdraw request", err)
		return
	}
	parsed, err := req.toModel(requestcontext.Identity(ctx))
	if err != nil {
		h.writeError(ctx, w, "invalid withdraw request", err)
		return
	}

	record, err := h.vault.Withdraw(ctx, parsed)
	if err != nil {
		h.writeError(ctx, w, "withdrawal failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// handleDerive computes the caller's addresses without touching storage.
func (h *Handler) handleDerive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asset, err := parseAddress("asset", chi.URLParam(r, "asset"))
	if err != nil {
		h.writeError(ctx, w, "invalid derive request", err)
		return
	}

	pool, err := h.resolver.Pool(asset)
	if err != nil {
		h.writeError(ctx, w, "failed to derive pool address", dErrors.Wrap(err, dErrors.CodeInternal, "derivation failed"))
		return
	}
	access, err := h.resolver.Access(asset, requestcontext.Identity(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to derive access address", dErrors.Wrap(err, dErrors.CodeInternal, "derivation failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deriveResponse{
		ProgramID:  h.resolver.ProgramID(),
		Asset:      asset,
		Pool:       pool.Address,
		PoolBump:   pool.Bump,
		Access:     access.Address,
		AccessBump: access.Bump,
	})
}

// writeError logs and writes err. Ledger rejections that reach the handler
// without a domain code are reported as transfer_failed.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		if te, ok := token.AsError(err); ok {
			err = dErrors.Wrap(te, dErrors.CodeTransferFailed, te.Message)
		}
	}
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

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

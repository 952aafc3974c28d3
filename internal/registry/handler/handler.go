package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"skillchain/internal/registry/models"
	"skillchain/internal/registry/service"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/httputil"
	"skillchain/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Initialize(ctx context.Context, administrator models.Address) error
	AddVerifiedIssuer(ctx context.Context, addr models.Address, name string) error
	RemoveIssuer(ctx context.Context, addr models.Address) error
	UpdateIssuerReputation(ctx context.Context, addr models.Address, score uint64) error
	IssueCertificate(ctx context.Context, recipient models.Address, req service.IssueRequest) (models.TokenID, error)
	BatchIssueCertificates(ctx context.Context, recipients []models.Address, req service.IssueRequest) ([]models.TokenID, error)

	GetIssuerInfo(ctx context.Context, addr models.Address) (models.Issuer, error)
	TotalSupply(ctx context.Context) (uint64, error)
	GetOwner(ctx context.Context) (models.Address, error)
	BalanceOf(ctx context.Context, owner models.Address) (uint64, error)
	OwnerOf(ctx context.Context, id models.TokenID) (models.Address, error)
	GetCertificate(ctx context.Context, id models.TokenID) (*models.Certificate, error)
	GetCertificatesByOwner(ctx context.Context, owner models.Address) ([]models.TokenID, error)
	ListCertificatesByOwner(ctx context.Context, owner models.Address) ([]models.Certificate, error)
}

type validatable interface {
	Validate() error
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service       Service
	logger        *slog.Logger
	requireCaller func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithCallerAuth guards mutating routes with mw, which must install the
// caller identity into the request context.
func WithCallerAuth(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.requireCaller = mw
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts registry endpoints under /v1.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/registry/owner", h.HandleGetOwner)
		r.Get("/registry/total-supply", h.HandleTotalSupply)
		r.Get("/issuers/{address}", h.HandleGetIssuer)
		r.Get("/certificates/{id}", h.HandleGetCertificate)
		r.Get("/certificates/{id}/owner", h.HandleOwnerOf)
		r.Get("/owners/{address}/balance", h.HandleBalanceOf)
		r.Get("/owners/{address}/certificates", h.HandleCertificatesByOwner)

		r.Group(func(r chi.Router) {
			if h.requireCaller != nil {
				r.Use(h.requireCaller)
			}
			r.Post("/registry/initialize", h.HandleInitialize)
			r.Post("/issuers", h.HandleAddIssuer)
			r.Delete("/issuers/{address}", h.HandleRemoveIssuer)
			r.Put("/issuers/{address}/reputation", h.HandleUpdateReputation)
			r.Post("/certificates", h.HandleIssueCertificate)
			r.Post("/certificates/batch", h.HandleBatchIssue)
		})
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	ctx := r.Context()
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.logger.WarnContext(ctx, "failed to decode request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	if err := dst.Validate(); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}

// fail logs a rejected operation and writes the error. Internal errors log at
// error level; client errors at info.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.InfoContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func addressParam(r *http.Request) (models.Address, error) {
	return parseAddressField("address", chi.URLParam(r, "address"))
}

func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req InitializeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Initialize(ctx, req.administrator); err != nil {
		h.fail(ctx, w, "registry initialization rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, OwnerResponse{Owner: req.administrator.Hex()})
}

func (h *Handler) HandleGetOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := h.service.GetOwner(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to load registry owner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OwnerResponse{Owner: owner.Hex()})
}

func (h *Handler) HandleTotalSupply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	supply, err := h.service.TotalSupply(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to load total supply", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TotalSupplyResponse{TotalSupply: supply})
}

func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AddIssuerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.AddVerifiedIssuer(ctx, req.address, req.Name); err != nil {
		h.fail(ctx, w, "add issuer rejected", err, "issuer", req.address.Hex())
		return
	}
	issuer, err := h.service.GetIssuerInfo(ctx, req.address)
	if err != nil {
		h.fail(ctx, w, "failed to load issuer", err, "issuer", req.address.Hex())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIssuerResponse(req.address, issuer))
}

func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveIssuer(ctx, addr); err != nil {
		h.fail(ctx, w, "remove issuer rejected", err, "issuer", addr.Hex())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUpdateReputation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req UpdateReputationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.UpdateIssuerReputation(ctx, addr, *req.Score); err != nil {
		h.fail(ctx, w, "reputation update rejected", err, "issuer", addr.Hex())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issuer, err := h.service.GetIssuerInfo(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "failed to load issuer", err, "issuer", addr.Hex())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssuerResponse(addr, issuer))
}

func (h *Handler) HandleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req IssueCertificateRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.service.IssueCertificate(ctx, req.recipient, service.IssueRequest{
		SkillName:   req.SkillName,
		Level:       models.Level(req.Level),
		MetadataURI: req.MetadataURI,
	})
	if err != nil {
		h.fail(ctx, w, "certificate issuance rejected", err, "recipient", req.recipient.Hex())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, TokenIDResponse{TokenID: uint64(id)})
}

func (h *Handler) HandleBatchIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req BatchIssueRequest
	if !h.decode(w, r, &req) {
		return
	}
	ids, err := h.service.BatchIssueCertificates(ctx, req.recipients, service.IssueRequest{
		SkillName:   req.SkillName,
		Level:       models.Level(req.Level),
		MetadataURI: req.MetadataURI,
	})
	if err != nil {
		h.fail(ctx, w, "batch issuance rejected", err, "recipients", len(req.recipients))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, TokenIDsResponse{TokenIDs: toTokenIDs(ids)})
}

func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cert, err := h.service.GetCertificate(ctx, id)
	if err != nil {
		h.fail(ctx, w, "certificate lookup failed", err, "token_id", uint64(id))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(*cert))
}

func (h *Handler) HandleOwnerOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner, err := h.service.OwnerOf(ctx, id)
	if err != nil {
		h.fail(ctx, w, "owner lookup failed", err, "token_id", uint64(id))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OwnerResponse{Owner: owner.Hex()})
}

func (h *Handler) HandleBalanceOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.BalanceOf(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "balance lookup failed", err, "owner", addr.Hex())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Owner: addr.Hex(), Balance: balance})
}

// HandleCertificatesByOwner returns owned token ids; ?expand=true adds the
// full certificate records.
func (h *Handler) HandleCertificatesByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := addressParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expand := false
	if raw := r.URL.Query().Get("expand"); raw != "" {
		if expand, err = strconv.ParseBool(raw); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expand must be a boolean"))
			return
		}
	}

	resp := OwnedCertificatesResponse{Owner: addr.Hex()}
	if !expand {
		ids, err := h.service.GetCertificatesByOwner(ctx, addr)
		if err != nil {
			h.fail(ctx, w, "owned certificates lookup failed", err, "owner", addr.Hex())
			return
		}
		resp.TokenIDs = toTokenIDs(ids)
		httputil.WriteJSON(w, http.StatusOK, resp)
		return
	}

	certs, err := h.service.ListCertificatesByOwner(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "owned certificates lookup failed", err, "owner", addr.Hex())
		return
	}
	resp.TokenIDs = make([]uint64, 0, len(certs))
	resp.Certificates = make([]CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		resp.TokenIDs = append(resp.TokenIDs, uint64(cert.TokenID))
		resp.Certificates = append(resp.Certificates, toCertificateResponse(cert))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"locatio/internal/deposit"
	"locatio/internal/lease/models"
	"locatio/internal/lease/service"
	"locatio/internal/notice"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/internal/signature"
	"locatio/pkg/domain"
	"locatio/pkg/platform/httputil"
	"locatio/pkg/requestcontext"
)

// Service defines the interface for lease operations.
type Service interface {
	CreateLease(ctx context.Context, req service.CreateLeaseRequest) (*models.Lease, error)
	GetLease(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error)
	ListLeases(ctx context.Context) ([]*models.Lease, error)
	SendForSignature(ctx context.Context, leaseID domain.LeaseID, document []byte, signers []signature.Signer) (*models.Lease, error)
	RecordSignature(ctx context.Context, leaseID domain.LeaseID, party models.SignerRole, method models.SignatureMethod, evidenceRef string) (*models.Lease, error)
	ReconcileProviderStatus(ctx context.Context, leaseID domain.LeaseID, status models.ProviderStatus) (*models.Lease, error)
	DownloadSignedDocument(ctx context.Context, leaseID domain.LeaseID) ([]byte, error)
	IssueNotice(ctx context.Context, leaseID domain.LeaseID, noticeDate time.Time, periodMonths int, issuedBy notice.IssuedBy) (*notice.Notice, *models.Lease, error)
	ApplyRevision(ctx context.Context, leaseID domain.LeaseID, year int, irlQuarter string, referenceIRL, newIRL float64) (*revision.Record, error)
	ListRevisions(ctx context.Context, leaseID domain.LeaseID) ([]*revision.Record, error)
	ComputeRegularization(ctx context.Context, leaseID domain.LeaseID, year int, provisionsCollected float64, lines []regularization.ChargeLine) (*regularization.Regularization, error)
	ComputeSettlement(ctx context.Context, leaseID domain.LeaseID, retainedAmount float64, retainedReasons []string, restitutionDeadlineDays int) (*deposit.Settlement, error)
}

// Handler wires lease endpoints to the lease service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a lease handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts lease endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/leases", func(r chi.Router) {
		r.Post("/", h.HandleCreateLease)
		r.Get("/", h.HandleListLeases)
		r.Route("/{leaseID}", func(r chi.Router) {
			r.Get("/", h.HandleGetLease)
			r.Post("/send", h.HandleSendForSignature)
			r.Post("/signatures", h.HandleRecordSignature)
			r.Post("/signatures/reconcile", h.HandleReconcile)
			r.Get("/document", h.HandleDownloadDocument)
			r.Post("/notice", h.HandleIssueNotice)
			r.Post("/revisions", h.HandleApplyRevision)
			r.Get("/revisions", h.HandleListRevisions)
			r.Post("/regularizations", h.HandleRegularization)
			r.Post("/settlement", h.HandleSettlement)
		})
	})
}

func (h *Handler) leaseID(w http.ResponseWriter, r *http.Request) (domain.LeaseID, bool) {
	leaseID, err := domain.ParseLeaseID(chi.URLParam(r, "leaseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.LeaseID{}, false
	}
	return leaseID, true
}

// HandleCreateLease handles POST /leases requests.
func (h *Handler) HandleCreateLease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateLeaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	lease, err := h.service.CreateLease(ctx, service.CreateLeaseRequest{
		OwnerID:          req.parsedOwnerID,
		TenantID:         req.parsedTenantID,
		PropertyID:       req.parsedPropertyID,
		StartDate:        req.parsedStartDate,
		EndDate:          req.parsedEndDate,
		MonthlyRent:      req.MonthlyRent,
		ChargesProvision: req.ChargesProvision,
		DepositAmount:    req.DepositAmount,
		SignatureMethod:  req.parsedMethod,
		RevisionAnchor:   req.parsedAnchor,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "lease creation failed",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lease created",
		"request_id", requestID, "lease_id", lease.ID)
	httputil.WriteJSON(w, http.StatusCreated, FromLease(lease))
}

// HandleGetLease handles GET /leases/{leaseID} requests.
func (h *Handler) HandleGetLease(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}

	lease, err := h.service.GetLease(r.Context(), leaseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLease(lease))
}

// HandleListLeases handles GET /leases requests.
func (h *Handler) HandleListLeases(w http.ResponseWriter, r *http.Request) {
	leases, err := h.service.ListLeases(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListLeasesResponse{Leases: FromLeases(leases)})
}

// HandleSendForSignature handles POST /leases/{leaseID}/send requests.
func (h *Handler) HandleSendForSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SendForSignatureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	lease, err := h.service.SendForSignature(ctx, leaseID, req.parsedDocument, req.parsedSigners)
	if err != nil {
		h.logger.ErrorContext(ctx, "envelope creation failed",
			"request_id", requestID, "lease_id", leaseID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lease sent for signature",
		"request_id", requestID, "lease_id", leaseID, "envelope_id", lease.EnvelopeID)
	httputil.WriteJSON(w, http.StatusOK, FromLease(lease))
}

// HandleRecordSignature handles POST /leases/{leaseID}/signatures requests.
func (h *Handler) HandleRecordSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RecordSignatureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	lease, err := h.service.RecordSignature(ctx, leaseID, req.parsedParty, req.parsedMethod, req.EvidenceRef)
	if err != nil {
		h.logger.ErrorContext(ctx, "signature recording failed",
			"request_id", requestID, "lease_id", leaseID, "party", req.Party, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "signature recorded",
		"request_id", requestID, "lease_id", leaseID,
		"party", req.Party, "status", lease.Status)
	httputil.WriteJSON(w, http.StatusOK, FromLease(lease))
}

// HandleReconcile handles POST /leases/{leaseID}/signatures/reconcile requests.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReconcileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	lease, err := h.service.ReconcileProviderStatus(ctx, leaseID, models.ProviderStatus(req.ProviderStatus))
	if err != nil {
		h.logger.ErrorContext(ctx, "provider reconciliation failed",
			"request_id", requestID, "lease_id", leaseID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLease(lease))
}

// HandleDownloadDocument handles GET /leases/{leaseID}/document requests.
func (h *Handler) HandleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}

	document, err := h.service.DownloadSignedDocument(r.Context(), leaseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

// HandleIssueNotice handles POST /leases/{leaseID}/notice requests.
func (h *Handler) HandleIssueNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[IssueNoticeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	n, lease, err := h.service.IssueNotice(ctx, leaseID, req.parsedNoticeDate, req.PeriodMonths, req.parsedIssuedBy)
	if err != nil {
		h.logger.ErrorContext(ctx, "notice issuance failed",
			"request_id", requestID, "lease_id", leaseID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "termination notice issued",
		"request_id", requestID, "lease_id", leaseID,
		"move_out_date", n.MoveOutDate.Format(dateLayout))
	httputil.WriteJSON(w, http.StatusCreated, IssueNoticeResponse{Notice: n, Lease: FromLease(lease)})
}

// HandleApplyRevision handles POST /leases/{leaseID}/revisions requests.
func (h *Handler) HandleApplyRevision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApplyRevisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.ApplyRevision(ctx, leaseID, req.Year, req.IRLQuarter, req.ReferenceIRL, req.NewIRL)
	if err != nil {
		h.logger.ErrorContext(ctx, "rent revision failed",
			"request_id", requestID, "lease_id", leaseID, "year", req.Year, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleListRevisions handles GET /leases/{leaseID}/revisions requests.
func (h *Handler) HandleListRevisions(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListRevisions(r.Context(), leaseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"revisions": records})
}

// HandleRegularization handles POST /leases/{leaseID}/regularizations requests.
func (h *Handler) HandleRegularization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegularizationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.ComputeRegularization(ctx, leaseID, req.Year, req.ProvisionsCollected, req.parsedLines)
	if err != nil {
		h.logger.ErrorContext(ctx, "charge regularization failed",
			"request_id", requestID, "lease_id", leaseID, "year", req.Year, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleSettlement handles POST /leases/{leaseID}/settlement requests.
func (h *Handler) HandleSettlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leaseID, ok := h.leaseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SettlementRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	settlement, err := h.service.ComputeSettlement(ctx, leaseID, req.RetainedAmount, req.RetainedReasons, req.RestitutionDeadlineDays)
	if err != nil {
		h.logger.ErrorContext(ctx, "deposit settlement failed",
			"request_id", requestID, "lease_id", leaseID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, settlement)
}

package billing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fitcore/fitcore/internal/authz"
	"github.com/fitcore/fitcore/internal/platform/httpx"
	"github.com/fitcore/fitcore/internal/shared"
)

// Handler manages membership and invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, validator: validator.New()}
}

// MountRoutes registers membership and invoice routes on the root
// router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/memberships", func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleSuperAdmin, shared.RoleAdmin, shared.RoleManager, shared.RoleStaff))
		r.Post("/", h.createMembership)
		r.Get("/{id}", h.getMembership)
		r.Post("/{id}/payments", h.recordPayment)
	})
	r.Route("/invoices", func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleSuperAdmin, shared.RoleAdmin, shared.RoleManager, shared.RoleStaff))
		r.Get("/", h.listInvoices)
		r.Get("/{id}", h.getInvoice)
	})
}

func (h *Handler) createMembership(w http.ResponseWriter, r *http.Request) {
	var req CreateMembershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var identity shared.Identity
	if id := shared.IdentityFromContext(r.Context()); id != nil {
		identity = *id
	}
	result, err := h.service.CreateMembership(r.Context(), req, identity)
	if err != nil {
		h.logger.Error("create membership", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type membershipResponse struct {
	Membership Membership `json:"membership"`
	Invoice    Invoice    `json:"invoice"`
}

func (h *Handler) getMembership(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid membership ID")
		return
	}
	membership, invoice, err := h.service.GetMembership(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, membershipResponse{Membership: membership, Invoice: invoice})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid membership ID")
		return
	}
	var req PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.RecordPayment(r.Context(), id, req)
	if err != nil {
		h.logger.Error("record payment", slog.Any("error", err), slog.Int64("membership_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{
		Status: InvoiceStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("membership_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid membership_id")
			return
		}
		req.MembershipID = id
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	invoices, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice ID")
		return
	}
	invoice, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

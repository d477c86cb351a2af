package analytics

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

// Handler manages analytics endpoints.
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

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleSuperAdmin, shared.RoleAdmin, shared.RoleManager, shared.RoleStaff))
		r.Post("/events", h.record)
		r.Get("/events", h.list)
		r.Get("/{entityType}/{id}", h.entityAnalytics)
	})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var form EventForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	event, err := h.service.Record(r.Context(), form, identity.UserID)
	if err != nil {
		h.logger.Error("record analytics event", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, event)
}

type eventListResponse struct {
	Events     []Event           `json:"events"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		EntityType: EntityType(r.URL.Query().Get("entity_type")),
		EventType:  r.URL.Query().Get("event_type"),
	}
	if filters.EntityType != "" && !ValidEntityType(filters.EntityType) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entity_type")
		return
	}
	if v := r.URL.Query().Get("entity_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entity_id")
			return
		}
		filters.EntityID = id
	}
	filters.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filters.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PerPage <= 0 {
		filters.PerPage = 20
	}

	events, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list analytics events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, eventListResponse{
		Events:     events,
		Pagination: shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) entityAnalytics(w http.ResponseWriter, r *http.Request) {
	entityType := EntityType(chi.URLParam(r, "entityType"))
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entity ID")
		return
	}
	summary, err := h.service.EntityAnalytics(r.Context(), entityType, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

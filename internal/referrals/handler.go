package referrals

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

// Handler manages referral endpoints.
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

// MountRoutes registers referral routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleSuperAdmin, shared.RoleAdmin, shared.RoleManager, shared.RoleStaff))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/rewards", h.rewards)
		r.Post("/rewards", h.createReward)
		r.Post("/rewards/{id}/claim", h.claim)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var memberID int64
	if v := r.URL.Query().Get("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid member_id")
			return
		}
		memberID = id
	}
	referrals, err := h.service.List(r.Context(), memberID)
	if err != nil {
		h.logger.Error("list referrals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"referrals": referrals})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form ReferralForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	referral, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.logger.Error("create referral", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, referral)
}

func (h *Handler) rewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.service.Rewards(r.Context(), RewardStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.logger.Error("list rewards", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rewards": rewards})
}

func (h *Handler) createReward(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReferralID int64   `json:"referral_id"`
		Amount     float64 `json:"amount"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	reward, err := h.service.CreateReward(r.Context(), body.ReferralID, body.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reward)
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid reward ID")
		return
	}
	if err := h.service.Claim(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

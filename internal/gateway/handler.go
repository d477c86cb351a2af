package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fitcore/fitcore/internal/authz"
	"github.com/fitcore/fitcore/internal/platform/httpx"
	"github.com/fitcore/fitcore/internal/shared"
)

// OrderLedger records a zero-amount reference entry when an order is
// created, so pending gateway orders are visible in the books.
type OrderLedger interface {
	RecordMembershipPayment(ctx context.Context, amount float64, method, reference, notes string, paidAt time.Time) error
}

// Handler manages gateway endpoints.
type Handler struct {
	logger    *slog.Logger
	client    *Client
	ledger    OrderLedger
	idem      *shared.IdempotencyStore
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance. Ledger and idem are optional.
func NewHandler(logger *slog.Logger, client *Client, ledger OrderLedger, idem *shared.IdempotencyStore, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, client: client, ledger: ledger, idem: idem, authz: authz, validator: validator.New()}
}

// MountRoutes registers gateway routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleSuperAdmin, shared.RoleAdmin, shared.RoleManager, shared.RoleStaff))
		r.Post("/orders", h.createOrder)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if h.idem != nil && idemKey != "" {
		if err := h.idem.CheckAndInsert(r.Context(), idemKey, "gateway.order"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", "this order was already submitted")
				return
			}
			httpx.RespondError(w, err)
			return
		}
	}

	resp, err := h.client.CreateOrder(r.Context(), req)
	if err != nil {
		if h.idem != nil && idemKey != "" {
			if derr := h.idem.Delete(context.WithoutCancel(r.Context()), idemKey); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.logger.Error("create gateway order", slog.Any("error", err), slog.String("provider", string(req.Provider)))
		httpx.RespondError(w, err)
		return
	}

	if h.ledger != nil {
		notes := "gateway order pending (" + string(req.Provider) + ")"
		if err := h.ledger.RecordMembershipPayment(context.WithoutCancel(r.Context()), 0, string(req.Provider), req.OrderRef, notes, time.Now()); err != nil {
			h.logger.Warn("record gateway order reference", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusCreated, resp)
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fitcore/fitcore/internal/analytics"
	"github.com/fitcore/fitcore/internal/auth"
	"github.com/fitcore/fitcore/internal/authz"
	"github.com/fitcore/fitcore/internal/billing"
	"github.com/fitcore/fitcore/internal/branches"
	"github.com/fitcore/fitcore/internal/gateway"
	"github.com/fitcore/fitcore/internal/goals"
	"github.com/fitcore/fitcore/internal/gyms"
	"github.com/fitcore/fitcore/internal/ledger"
	"github.com/fitcore/fitcore/internal/lockers"
	"github.com/fitcore/fitcore/internal/members"
	"github.com/fitcore/fitcore/internal/observability"
	"github.com/fitcore/fitcore/internal/plans"
	"github.com/fitcore/fitcore/internal/referrals"
	"github.com/fitcore/fitcore/internal/trainers"
	"github.com/fitcore/fitcore/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Tokens           *auth.TokenStore
	Authz            authz.Middleware
	AuthHandler      *auth.Handler
	GymHandler       *gyms.Handler
	BranchHandler    *branches.Handler
	MemberHandler    *members.Handler
	TrainerHandler   *trainers.Handler
	PlanHandler      *plans.Handler
	BillingHandler   *billing.Handler
	GatewayHandler   *gateway.Handler
	LockerHandler    *lockers.Handler
	ReferralHandler  *referrals.Handler
	LedgerHandler    *ledger.Handler
	GoalHandler      *goals.Handler
	AnalyticsHandler *analytics.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with FitCore defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Tokens:  params.Tokens,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.GymHandler != nil {
		r.Route("/gyms", params.GymHandler.MountRoutes)
	}
	if params.BranchHandler != nil {
		r.Route("/branches", params.BranchHandler.MountRoutes)
	}
	if params.MemberHandler != nil {
		r.Route("/members", params.MemberHandler.MountRoutes)
	}
	if params.TrainerHandler != nil {
		r.Route("/trainers", params.TrainerHandler.MountRoutes)
	}
	if params.PlanHandler != nil {
		r.Route("/plans", params.PlanHandler.MountRoutes)
	}
	if params.BillingHandler != nil {
		params.BillingHandler.MountRoutes(r)
	}
	if params.GatewayHandler != nil {
		r.Route("/gateway", params.GatewayHandler.MountRoutes)
	}
	if params.LockerHandler != nil {
		r.Route("/lockers", params.LockerHandler.MountRoutes)
	}
	if params.ReferralHandler != nil {
		r.Route("/referral", params.ReferralHandler.MountRoutes)
	}
	if params.LedgerHandler != nil {
		r.Route("/transaction", params.LedgerHandler.MountRoutes)
	}
	if params.GoalHandler != nil {
		r.Route("/goals", params.GoalHandler.MountRoutes)
	}
	if params.AnalyticsHandler != nil {
		r.Route("/analytics-events", params.AnalyticsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// Package httptransport is the thin HTTP layer. Handlers bind parameters,
// delegate to services, and map typed failures to status codes; business
// rules stay in the services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	companyservice "stamply/internal/company/service"
	identityservice "stamply/internal/identity/service"
	punchcardservice "stamply/internal/punchcard/service"
)

// Handler wires API endpoints to domain services.
type Handler struct {
	identities *identityservice.Service
	companies  *companyservice.Service
	punchcards *punchcardservice.Service
	logger     *slog.Logger
}

func NewHandler(
	identities *identityservice.Service,
	companies *companyservice.Service,
	punchcards *punchcardservice.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		identities: identities,
		companies:  companies,
		punchcards: punchcards,
		logger:     logger,
	}
}

// NewRouter mounts all endpoints. Admin-only mutations sit behind the signed
// admin token; punch-card issuance requires an active user credential.
func NewRouter(h *Handler, adminSigningKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/users", h.HandleRegister)
	r.Get("/users", h.HandleListUsers)
	r.Get("/users/{id}", h.HandleGetUser)
	r.Post("/token", h.HandleToken)

	r.Get("/companies", h.HandleListCompanies)
	r.Post("/companies/search", h.HandleSearchCompanies)
	r.Get("/companies/{id}", h.HandleGetCompany)

	r.Group(func(admin chi.Router) {
		admin.Use(RequireAdmin(adminSigningKey, h.logger))
		admin.Post("/companies", h.HandleCreateCompany)
		admin.Post("/companies/{id}", h.HandleUpdateCompany)
		admin.Delete("/companies/{id}", h.HandleDeleteCompany)
		admin.Post("/users/{username}/reissue", h.HandleReissue)
	})

	r.Get("/punchcards", h.HandleListPunchcards)
	r.Get("/punchcards/{id}", h.HandleGetPunchcard)
	r.Group(func(user chi.Router) {
		user.Use(RequireUser(h.identities, h.logger))
		user.Get("/users/me", h.HandleMe)
		user.Post("/users/me", h.HandleUpdateMe)
		user.Post("/punchcards/{company_id}", h.HandleIssuePunchcard)
	})

	return r
}

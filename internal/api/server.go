package api

import (
	"net/http"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redhatinsights/platform-go-middlewares/identity"
	"github.com/sirupsen/logrus"
)

// BasePath is where the API is mounted
const BasePath = "/api/carbon/v1"

// Server holds the API router
type Server struct {
	Router *chi.Mux
	svc    *ledger.Service
	log    *logrus.Entry
}

// NewServer creates the router with all API routes mounted under BasePath
func NewServer(svc *ledger.Service, log *logrus.Entry, allowedOrigins []string) *Server {
	s := &Server{Router: chi.NewRouter(), svc: svc, log: log}
	s.Router.Use(RequestLogger(log))
	s.Router.Use(PanicHandler)
	s.Router.Use(Metrics)
	s.Router.Use(middleware.RequestSize(MaxBodySize))
	if len(allowedOrigins) > 0 {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Rh-Identity", requestIDHeader},
			ExposedHeaders:   []string{"Location", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	s.Router.Route(BasePath, func(r chi.Router) {
		r.Use(identity.EnforceIdentity)
		for _, h := range s.handlers() {
			r.Method(h.Method, h.Path, WrapHttpRsp(h.Handler))
		}
		r.NotFound(WrapHttpRsp(func(r *http.Request) (*Response, error) {
			return nil, apperrors.NotFound("no route for %s", r.URL.Path)
		}))
	})
	return s
}

func (s *Server) handlers() []ResponseHandlerParam {
	return []ResponseHandlerParam{
		{Method: http.MethodGet, Path: "/standards", Handler: s.listStandards},
		{Method: http.MethodGet, Path: "/standards/{standard}/forms", Handler: s.getForms},

		{Method: http.MethodPost, Path: "/tenants", Handler: s.createTenant},
		{Method: http.MethodGet, Path: "/tenants", Handler: s.listTenants},
		{Method: http.MethodGet, Path: "/tenants/{tenantID}", Handler: s.getTenant},
		{Method: http.MethodDelete, Path: "/tenants/{tenantID}", Handler: s.deleteTenant},
		{Method: http.MethodGet, Path: "/tenants/{tenantID}/members", Handler: s.listMembers},
		{Method: http.MethodPost, Path: "/tenants/{tenantID}/members", Handler: s.addMember},
		{Method: http.MethodDelete, Path: "/tenants/{tenantID}/members/{userID}", Handler: s.removeMember},
		{Method: http.MethodGet, Path: "/tenants/{tenantID}/projects", Handler: s.listProjects},

		{Method: http.MethodPost, Path: "/projects", Handler: s.createProject},
		{Method: http.MethodGet, Path: "/projects/{projectID}", Handler: s.getProject},
		{Method: http.MethodPatch, Path: "/projects/{projectID}", Handler: s.updateProject},
		{Method: http.MethodDelete, Path: "/projects/{projectID}", Handler: s.deleteProject},
		{Method: http.MethodPost, Path: "/projects/{projectID}/status", Handler: s.setProjectStatus},

		{Method: http.MethodGet, Path: "/projects/{projectID}/steps/{step}", Handler: s.listEntries},
		{Method: http.MethodPost, Path: "/projects/{projectID}/steps/{step}", Handler: s.createEntry},
		{Method: http.MethodGet, Path: "/projects/{projectID}/steps/{step}/{entryID}", Handler: s.getEntry},
		{Method: http.MethodPut, Path: "/projects/{projectID}/steps/{step}/{entryID}", Handler: s.updateEntry},
		{Method: http.MethodDelete, Path: "/projects/{projectID}/steps/{step}/{entryID}", Handler: s.deleteEntry},

		{Method: http.MethodGet, Path: "/projects/{projectID}/calculations", Handler: s.listCalculations},
		{Method: http.MethodPost, Path: "/projects/{projectID}/calculations", Handler: s.createCalculation},
		{Method: http.MethodGet, Path: "/calculations/{calculationID}", Handler: s.getCalculation},
		{Method: http.MethodPut, Path: "/calculations/{calculationID}", Handler: s.updateCalculation},
		{Method: http.MethodDelete, Path: "/calculations/{calculationID}", Handler: s.deleteCalculation},
		{Method: http.MethodPost, Path: "/projects/{projectID}/calculate", Handler: s.calculate},

		{Method: http.MethodGet, Path: "/projects/{projectID}/summary", Handler: s.getSummary},
		{Method: http.MethodPost, Path: "/projects/{projectID}/summary/recalculate", Handler: s.recalculateSummary},
	}
}

package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/logger"
	healthuc "github.com/kailas-cloud/relevex/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Options configures a Server. Experiments may be nil.
type Options struct {
	Search         Searcher
	Profiles       ProfileLister
	Experiments    ExperimentLister
	Health         HealthChecker
	DefaultProfile string
	DefaultLimit   int
}

// Server serves the search API.
type Server struct {
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(opts Options, logger *zap.Logger) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = request.DefaultLimit
	}
	s := &Server{opts: opts, logger: logger}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
		sentinelHandler(domain.ErrQueryFailed, http.StatusBadGateway, ErrorCodeQueryFailed),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/search", s.SearchProducts)
	r.Get("/search", s.SearchProductsQuery)
	r.Post("/search/explain", s.ExplainSearch)
	r.Get("/profiles", s.ListProfiles)
	r.Get("/experiments", s.ListExperiments)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// SearchProducts handles POST /search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.search(w, r, body)
}

// SearchProductsQuery handles GET /search.
func (s *Server) SearchProductsQuery(w http.ResponseWriter, r *http.Request) {
	body, err := bindSearchQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	s.search(w, r, body)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, body SearchRequest) {
	req, err := request.New(searchParamsFromDTO(body, s.opts.DefaultLimit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.opts.Search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// ExplainSearch handles POST /search/explain.
func (s *Server) ExplainSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(searchParamsFromDTO(body, s.opts.DefaultLimit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := explainToDTO(s.opts.Search.Explain(r.Context(), &req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListProfiles handles GET /profiles.
func (s *Server) ListProfiles(w http.ResponseWriter, _ *http.Request) {
	names := s.opts.Profiles.Names()
	items := make([]string, len(names))
	for i, n := range names {
		items[i] = string(n)
	}
	writeJSON(w, http.StatusOK, ProfilesResponse{Items: items, Default: s.opts.DefaultProfile})
}

// ListExperiments handles GET /experiments.
func (s *Server) ListExperiments(w http.ResponseWriter, _ *http.Request) {
	resp := ExperimentsResponse{Items: []ExperimentDTO{}}
	if s.opts.Experiments != nil {
		for _, t := range s.opts.Experiments.ActiveTests() {
			resp.Items = append(resp.Items, experimentToDTO(t))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. A degraded store still serves search,
// so only an unhealthy index fails the check.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.opts.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// validationHandler reports the offending field of a rejected request.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	msg := domain.ErrInvalidRequest.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel message only, never the wrapped chain.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

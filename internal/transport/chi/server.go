// Package chi is the thin HTTP boundary: decode, authenticate, delegate to
// the usecases, map domain errors to statuses. No business logic.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/logger"
	"github.com/careline-ai/careline/internal/metrics"
	healthuc "github.com/careline-ai/careline/internal/usecase/health"
	ingestuc "github.com/careline-ai/careline/internal/usecase/ingest"
	resolveuc "github.com/careline-ai/careline/internal/usecase/resolve"
)

// maxDocumentBytes bounds ingest request bodies.
const maxDocumentBytes = 4 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecases behind the JSON API.
type Server struct {
	resolver      *resolveuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	apiKeys       map[string]string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	resolver *resolveuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	apiKeys map[string]string,
	log *zap.Logger,
) *Server {
	s := &Server{
		resolver: resolver,
		ingest:   ingest,
		health:   health,
		apiKeys:  apiKeys,
		logger:   log,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderUnavailable),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// Router assembles the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(s.loggerMiddleware())
	r.Use(BearerAuthMiddleware(s.apiKeys))

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.Chat)
		r.Get("/history", s.History)
		r.Post("/collections/{collection}/documents", s.IngestDocument)
		r.Delete("/collections/{collection}/documents/{sourceID}", s.DeleteDocument)
		r.Get("/collections/{collection}/stats", s.CollectionStats)
	})

	return r
}

// loggerMiddleware puts a request-scoped logger into the context.
func (s *Server) loggerMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), log)))
		})
	}
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.resolver.Resolve(r.Context(), CallerFromContext(r.Context()), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:     res.Answer,
		Intent:     string(res.Intent),
		DataSource: res.DataSource,
	})
}

// History handles GET /v1/history.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	turns, err := s.resolver.History(r.Context(), CallerFromContext(r.Context()), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]turnResponse, len(turns))
	for i, t := range turns {
		items[i] = turnResponse{
			ID:         t.ID,
			Message:    t.Message,
			Answer:     t.Answer,
			Intent:     string(t.Intent),
			DataSource: t.DataSource,
			CreatedAt:  t.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, historyResponse{Items: items})
}

// IngestDocument handles POST /v1/collections/{collection}/documents.
// Re-posting the same source_id replaces the stored chunk set.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req ingestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	n, err := s.ingest.Ingest(r.Context(), collection, domain.Document{
		SourceID:    req.SourceID,
		RawText:     req.Text,
		ContentType: req.ContentType,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{SourceID: req.SourceID, Chunks: n})
}

// DeleteDocument handles DELETE /v1/collections/{collection}/documents/{sourceID}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	sourceID := chi.URLParam(r, "sourceID")

	if err := s.ingest.Remove(r.Context(), collection, sourceID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CollectionStats handles GET /v1/collections/{collection}/stats.
func (s *Server) CollectionStats(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	n, err := s.ingest.Count(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Collection: collection, Chunks: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrRecordNotFound,
		domain.ErrCollectionNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrProviderUnavailable,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

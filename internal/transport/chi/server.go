package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	"github.com/kailas-cloud/searchkv/internal/logger"
	"github.com/kailas-cloud/searchkv/internal/metrics"
	healthuc "github.com/kailas-cloud/searchkv/internal/usecase/health"
	queryuc "github.com/kailas-cloud/searchkv/internal/usecase/query"
)

// maxBodyBytes caps PUT payloads.
const maxBodyBytes = 1 << 20

// SessionFactory creates a fresh query session for one request.
type SessionFactory func(log *zap.Logger) *queryuc.Session

// Server serves the record API over HTTP.
type Server struct {
	newSession SessionFactory
	health     *healthuc.Service
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(newSession SessionFactory, health *healthuc.Service, log *zap.Logger) *Server {
	return &Server{newSession: newSession, health: health, logger: log}
}

// Handler builds the chi router with the standard middleware stack.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chimw.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/records", func(r gochi.Router) {
		r.Get("/", s.ListRecords)
		r.Get("/count", s.CountRecords)
		r.Get("/one", s.GetRecord)
		r.Get("/at/{position}", s.GetRecordAt)
		r.Get("/slice", s.SliceRecords)
		r.Put("/{key}", s.PutRecord)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// ListRecords handles GET /v1/records.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	s.iterate(w, r, sess)
}

// CountRecords handles GET /v1/records/count.
func (s *Server) CountRecords(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	n, err := sess.Count(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// GetRecord handles GET /v1/records/one.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	rec, err := sess.Get(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetRecordAt handles GET /v1/records/at/{position}.
func (s *Server) GetRecordAt(w http.ResponseWriter, r *http.Request) {
	raw := gochi.URLParam(r, "position")
	pos, err := strconv.Atoi(raw)
	if err != nil {
		handleDomainError(w, r, fmt.Errorf("position %q: %w", raw, domain.ErrInvalidIndex))
		return
	}

	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	rec, err := sess.GetAt(r.Context(), pos)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SliceRecords handles GET /v1/records/slice?start&stop&step.
func (s *Server) SliceRecords(w http.ResponseWriter, r *http.Request) {
	bounds, err := parseSlice(r.URL.Query())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	if _, err := sess.Slice(r.Context(), bounds.start, bounds.stop, bounds.step); err != nil {
		sess.Reset()
		handleDomainError(w, r, err)
		return
	}
	s.iterate(w, r, sess)
}

// PutRecord handles PUT /v1/records/{key}.
// A JSON object body is saved as a field map, any other body as a plain payload.
func (s *Server) PutRecord(w http.ResponseWriter, r *http.Request) {
	key := gochi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "request body is required")
		return
	}

	ctx := logger.With(r.Context(), zap.String("key", key))
	sess := s.newSession(logger.FromContext(ctx))
	if err := sess.Save(ctx, key, domain.ParseValue(body)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*queryuc.Session, bool) {
	args, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return nil, false
	}
	sess := s.newSession(logger.FromContext(r.Context()))
	args.apply(sess)
	return sess, true
}

func (s *Server) iterate(w http.ResponseWriter, r *http.Request, sess *queryuc.Session) {
	res, err := sess.Iterate(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewListResponse(res))
}

// CountResponse is the body of GET /v1/records/count.
type CountResponse struct {
	Count int `json:"count"`
}

// ListResponse is the body of the list and slice endpoints.
type ListResponse struct {
	Total   int             `json:"total"`
	Raw     bool            `json:"raw"`
	Hits    []domquery.Hit  `json:"hits,omitempty"`
	Records []domain.Record `json:"records,omitempty"`
}

// NewListResponse renders a result set as returned by the list endpoints.
func NewListResponse(res *queryuc.Results) ListResponse {
	out := ListResponse{Total: res.Total(), Raw: res.Raw()}
	if res.Raw() {
		out.Hits = res.HitList()
	} else {
		out.Records = res.RecordList()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geoframe/internal/domain"
	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
	logpkg "github.com/kailas-cloud/geoframe/internal/logger"
	evaluateuc "github.com/kailas-cloud/geoframe/internal/usecase/evaluate"
	healthuc "github.com/kailas-cloud/geoframe/internal/usecase/health"
)

// Error codes returned in errorResponse.Code.
const (
	CodeBadRequest      = "bad_request"
	CodeUnauthorized    = "unauthorized"
	CodeUnknownFunction = "unknown_function"
	CodeBatchTooLarge   = "batch_too_large"
	CodeInvalidLevel    = "invalid_level"
	CodeInvalidCell     = "invalid_cell"
	CodeInvalidRotation = "invalid_orientation"
	CodeNonFiniteResult = "non_finite_result"
	CodeInternalError   = "internal_error"
)

const defaultMaxBodyBytes = 16 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the geoframe HTTP API.
type Server struct {
	evaluate      *evaluateuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	metrics       http.Handler
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(evaluate *evaluateuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		evaluate:     evaluate,
		health:       health,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
		metrics:      promhttp.Handler(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownFunction, http.StatusNotFound, CodeUnknownFunction),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, CodeBatchTooLarge),
		sentinelHandler(domain.ErrInvalidLevel, http.StatusBadRequest, CodeInvalidLevel),
		sentinelHandler(domain.ErrInvalidCell, http.StatusBadRequest, CodeInvalidCell),
		sentinelHandler(domain.ErrInvalidOrientation, http.StatusBadRequest, CodeInvalidRotation),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
	}
	return s
}

// WithMaxBodyBytes limits request body size.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// WithMetricsHandler replaces the default registry exposition on /metrics.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	if h != nil {
		s.metrics = h
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", s.metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/functions", s.ListFunctions)
		r.Post("/functions/{name}/evaluate", s.EvaluateFunction)
		r.Get("/cells/{id}", s.GetCell)
	})
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

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// ListFunctions handles GET /v1/functions.
func (s *Server) ListFunctions(w http.ResponseWriter, r *http.Request) {
	fns := s.evaluate.Functions()
	items := make([]functionResponse, len(fns))
	for i, f := range fns {
		items[i] = functionToResponse(f)
	}
	writeJSON(w, http.StatusOK, functionListResponse{Items: items, Total: len(items)})
}

// EvaluateFunction handles POST /v1/functions/{name}/evaluate.
func (s *Server) EvaluateFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBatchTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rows, err := rowsFromRequest(req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ctx := logpkg.With(r.Context(), zap.String("function", name), zap.Int("rows", len(rows)))
	results, err := s.evaluate.Evaluate(ctx, name, req.Params.toDomain(), rows)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := evaluateResponse{
		Function: name,
		Results:  make([]rowResult, len(results)),
	}
	for i, res := range results {
		item := resultToResponse(res)
		switch item.Status {
		case statusOK:
			resp.Succeeded++
		case statusNull:
			resp.Nulls++
		default:
			resp.Failed++
		}
		resp.Results[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCell handles GET /v1/cells/{id}. The id is a decimal cell id or a hex token.
func (s *Server) GetCell(w http.ResponseWriter, r *http.Request) {
	id, err := parseCellID(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := cellToResponse(id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseCellID(raw string) (cell.ID, error) {
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return cell.ID(n), nil
	}
	return cell.FromToken(raw)
}

func cellToResponse(id cell.ID) (cellResponse, error) {
	level, err := cell.Level(id)
	if err != nil {
		return cellResponse{}, err
	}
	center, err := cell.ToLonLat(id)
	if err != nil {
		return cellResponse{}, err
	}
	area, err := cell.Area(id)
	if err != nil {
		return cellResponse{}, err
	}
	vs, err := cell.Vertices(id)
	if err != nil {
		return cellResponse{}, err
	}
	poly, err := cell.Polygon(id)
	if err != nil {
		return cellResponse{}, err
	}
	geometry, err := geojson.Encode(poly)
	if err != nil {
		return cellResponse{}, fmt.Errorf("encode geometry: %w", err)
	}

	vertices := make([]function.LonLat, len(vs))
	for i, v := range vs {
		vertices[i] = function.LonLat{Lon: v.Lon, Lat: v.Lat}
	}

	return cellResponse{
		ID:       strconv.FormatUint(uint64(id), 10),
		Token:    cell.Token(id),
		Level:    level,
		Center:   function.LonLat{Lon: center.Lon, Lat: center.Lat},
		Area:     area,
		Vertices: vertices,
		Geometry: geometry,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// domainSentinels are the errors whose text is safe to show clients.
var domainSentinels = []error{
	domain.ErrUnknownFunction,
	domain.ErrBatchTooLarge,
	domain.ErrInvalidLevel,
	domain.ErrInvalidCell,
	domain.ErrInvalidOrientation,
	domain.ErrInvalidRequest,
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var le *domain.LevelError
	if errors.As(err, &le) {
		return le.Error()
	}
	for _, s := range domainSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// errorCode maps a row or request error to its response code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidOrientation):
		return CodeInvalidRotation
	case errors.Is(err, domain.ErrInvalidCell):
		return CodeInvalidCell
	case errors.Is(err, domain.ErrInvalidLevel):
		return CodeInvalidLevel
	default:
		return CodeInternalError
	}
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
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads the response.
		s.logger.Debug("request canceled", zap.Error(err))
		return
	}
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

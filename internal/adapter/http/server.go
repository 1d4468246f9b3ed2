// Package http exposes the query API consumed by rendering clients, plus
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airsight-labs/airsight/internal/dataset"
	"github.com/airsight-labs/airsight/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server wires the dataset service and field resolver into HTTP routes.
type Server struct {
	httpServer *http.Server
	service    *dataset.Service
	resolver   *domain.Resolver
	logger     *slog.Logger

	maxSpatialPoints int
	maxSeriesPoints  int
}

// NewServer creates the query API server.
func NewServer(addr string, service *dataset.Service, resolver *domain.Resolver, maxSpatial, maxSeries int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:          service,
		resolver:         resolver,
		logger:           logger,
		maxSpatialPoints: maxSpatial,
		maxSeriesPoints:  maxSeries,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withRequestID(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("GET /api/v1/day", s.handleDay)
	mux.HandleFunc("GET /api/v1/series", s.handleSeries)
	mux.HandleFunc("GET /api/v1/series/daily", s.handleSeriesDaily)
	mux.HandleFunc("GET /api/v1/wind", s.handleWind)
	mux.HandleFunc("GET /api/v1/describe", s.handleDescribe)
	mux.HandleFunc("GET /api/v1/correlation", s.handleCorrelation)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(service))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// withRequestID tags each request with an ID and logs the access line.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// dayResponse is the single-day snapshot payload.
type dayResponse struct {
	Date     string         `json:"date"`
	Variable string         `json:"variable"`
	Points   []domain.Point `json:"points"`
	Count    int            `json:"count"`
	Note     string         `json:"note,omitempty"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	variable := varParam(r)
	maxPoints := s.intParam(r, "max", s.maxSpatialPoints)

	records := s.service.LoadDay(r.Context(), date)
	points, err := s.resolver.Extract(records, variable)
	resp := dayResponse{Date: date, Variable: variable, Points: sampled(points, maxPoints)}
	resp.Count = len(resp.Points)
	if err != nil {
		s.logger.Warn("variable did not resolve", "variable", variable, "date", date, "error", err)
		resp.Note = "no data for this variable"
	}
	writeJSON(w, http.StatusOK, resp)
}

// seriesResponse is the raw multi-day payload, points date-descending.
type seriesResponse struct {
	Start    string         `json:"start"`
	Days     int            `json:"days"`
	Variable string         `json:"variable"`
	Points   []domain.Point `json:"points"`
	Note     string         `json:"note,omitempty"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	variable := varParam(r)
	days := s.intParam(r, "days", 30)

	points, err := s.seriesPoints(r.Context(), date, days, variable)
	resp := seriesResponse{Start: date, Days: days, Variable: variable, Points: points}
	if err != nil {
		resp.Note = "no data for this variable"
	}
	writeJSON(w, http.StatusOK, resp)
}

type dailyResponse struct {
	Start    string             `json:"start"`
	Days     int                `json:"days"`
	Variable string             `json:"variable"`
	Daily    []domain.DailyMean `json:"daily"`
	Note     string             `json:"note,omitempty"`
}

func (s *Server) handleSeriesDaily(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	variable := varParam(r)
	days := s.intParam(r, "days", 30)

	points, err := s.seriesPoints(r.Context(), date, days, variable)
	resp := dailyResponse{Start: date, Days: days, Variable: variable, Daily: domain.AggregateDaily(points)}
	if err != nil {
		resp.Note = "no data for this variable"
	}
	writeJSON(w, http.StatusOK, resp)
}

type windResponse struct {
	Date    string                  `json:"date"`
	Vectors []domain.PollutantPoint `json:"vectors"`
	Note    string                  `json:"note,omitempty"`
}

func (s *Server) handleWind(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	pollutant := varParam(r)
	maxPoints := s.intParam(r, "max", s.maxSpatialPoints)

	records := s.service.LoadDay(r.Context(), date)
	enriched, err := s.resolver.ExtractPollutant(records, pollutant)
	vectors := make([]domain.PollutantPoint, 0, len(enriched))
	for _, p := range enriched {
		if p.HasWind {
			vectors = append(vectors, p)
		}
	}
	resp := windResponse{Date: date, Vectors: domain.SampleVectors(vectors, maxPoints)}
	if err != nil {
		s.logger.Warn("variable did not resolve", "variable", pollutant, "date", date, "error", err)
		resp.Note = "no data for this variable"
	}
	writeJSON(w, http.StatusOK, resp)
}

type describeResponse struct {
	Start    string         `json:"start"`
	Days     int            `json:"days"`
	Variable string         `json:"variable"`
	Summary  domain.Summary `json:"summary"`
	Note     string         `json:"note,omitempty"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	variable := varParam(r)
	days := s.intParam(r, "days", 1)

	points, err := s.seriesPoints(r.Context(), date, days, variable)
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	resp := describeResponse{Start: date, Days: days, Variable: variable, Summary: domain.Describe(values)}
	if err != nil {
		resp.Note = "no data for this variable"
	}
	writeJSON(w, http.StatusOK, resp)
}

type correlationResponse struct {
	Start     string      `json:"start"`
	Days      int         `json:"days"`
	Variables []string    `json:"variables"`
	Matrix    [][]float64 `json:"matrix"`
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	days := s.intParam(r, "days", 1)
	variables := splitList(r.URL.Query().Get("vars"))
	if len(variables) < 2 {
		writeError(w, http.StatusBadRequest, "vars must list at least two variables")
		return
	}

	records := s.service.BuildSeries(r.Context(), date, days)
	matrix := domain.CorrelationMatrix(s.resolver, records, variables)
	writeJSON(w, http.StatusOK, correlationResponse{Start: date, Days: days, Variables: variables, Matrix: matrix})
}

// seriesPoints builds the raw extracted series for a variable, downsampled
// past the configured cap. Resolution failure comes back as an error with an
// empty slice; fetch failures are already absorbed below.
func (s *Server) seriesPoints(ctx context.Context, date string, days int, variable string) ([]domain.Point, error) {
	records := s.service.BuildSeries(ctx, date, days)
	points, err := s.resolver.Extract(records, variable)
	if err != nil {
		s.logger.Warn("variable did not resolve", "variable", variable, "start", date, "days", days, "error", err)
		return []domain.Point{}, err
	}
	return domain.DownsampleSeries(points, s.maxSeriesPoints), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// dateParam reads and validates the date query parameter, defaulting to the
// most recent archive day. Writes a 400 and returns false on a bad value.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.service.DefaultDate()
	}
	if _, err := domain.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYYMMDD")
		return "", false
	}
	return date, true
}

func varParam(r *http.Request) string {
	if v := r.URL.Query().Get("var"); v != "" {
		return v
	}
	return "PM2.5"
}

func (s *Server) intParam(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func sampled(points []domain.Point, maxPoints int) []domain.Point {
	if points == nil {
		return []domain.Point{}
	}
	return domain.SampleSpatial(points, maxPoints)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

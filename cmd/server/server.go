package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liamcoop/chargecast/inference"
	"github.com/liamcoop/chargecast/internal/logger"
	"github.com/liamcoop/chargecast/internal/metrics"
)

type Server struct {
	adapter   *inference.ModelAdapter
	predictor *inference.Predictor
	metrics   *metrics.Metrics
	router    *chi.Mux
}

func NewServer(adapter *inference.ModelAdapter, m *metrics.Metrics) (*Server, error) {
	predictor, err := inference.NewPredictor(adapter)
	if err != nil {
		return nil, err
	}

	if info, err := adapter.Info(); err == nil {
		m.SetModel(info.Name, info.Version)
	}

	s := &Server{
		adapter:   adapter,
		predictor: predictor,
		metrics:   m,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/model", s.handleModel)
	r.Post("/api/v1/predict", s.handlePredict)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, err := s.adapter.Info()
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model":        info.Name,
		"modelVersion": info.Version,
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	info, err := s.adapter.Info()
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ModelResponse{
		ModelRef: ModelRef{ID: info.ID, Name: info.Name, Version: info.Version},
		Columns:  info.Columns,
	})
}

// maxPredictBody caps the bytes read from a predict request.
const maxPredictBody = 1 << 16

// Prediction handler
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPredictBody)

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	explain, _ := strconv.ParseBool(r.URL.Query().Get("explain"))

	start := time.Now()
	inf, err := s.predictor.Evaluate(req.rawInput())
	elapsed := time.Since(start)

	if err != nil {
		kind, ok := inference.KindOf(err)
		outcome := string(kind)
		if !ok {
			outcome = "internal"
		}
		s.metrics.ObservePrediction(outcome, elapsed)
		logPredictionFailure(r, kind, err)
		respondPipelineError(w, err)
		return
	}
	s.metrics.ObservePrediction(metrics.OutcomeOK, elapsed)

	logger.Trace("feature vector",
		"request_id", middleware.GetReqID(r.Context()),
		"columns", inf.Features.Columns(),
		"values", inf.Features.Values(),
	)

	info, err := s.adapter.Info()
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	logger.Debug("prediction served",
		"request_id", middleware.GetReqID(r.Context()),
		"charges", inf.Result.Formatted,
		"duration_ms", float64(elapsed.Microseconds())/1000,
	)

	respondJSON(w, http.StatusOK, newPredictResponse(inf, info, explain))
}

func logPredictionFailure(r *http.Request, kind inference.ErrorKind, err error) {
	args := []any{
		"request_id", middleware.GetReqID(r.Context()),
		"kind", kind,
		"error", err,
	}
	switch kind {
	case inference.KindValidation:
		logger.Debug("prediction rejected", args...)
	case inference.KindComputation:
		logger.Warn("prediction failed", args...)
	default:
		logger.Error("prediction failed", args...)
	}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind inference.ErrorKind) int {
	switch kind {
	case inference.KindValidation:
		return http.StatusBadRequest
	case inference.KindComputation:
		return http.StatusUnprocessableEntity
	case inference.KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var kindMessages = map[inference.ErrorKind]string{
	inference.KindValidation:       "invalid input",
	inference.KindComputation:      "prediction could not be computed",
	inference.KindModelUnavailable: "model unavailable",
	inference.KindSchemaMismatch:   "model schema mismatch",
}

func respondPipelineError(w http.ResponseWriter, err error) {
	kind, ok := inference.KindOf(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	resp := ErrorResponse{
		Error:   kindMessages[kind],
		Kind:    string(kind),
		Details: err.Error(),
	}
	for _, fe := range inference.FieldErrors(err) {
		resp.Fields = append(resp.Fields, FieldError{Field: fe.Field, Reason: fe.Reason})
	}
	respondJSON(w, statusFor(kind), resp)
}

// requestLogger logs one line per request: 5xx as errors, 4xx as
// warnings, everything else at info.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
			"remote_addr", r.RemoteAddr,
		}

		switch {
		case status >= 500:
			logger.Error("http request", args...)
		case status >= 400:
			logger.Warn("http request", args...)
		default:
			logger.Info("http request", args...)
		}
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

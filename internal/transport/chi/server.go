package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/logger"
	healthuc "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/health"
	printuc "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/print"
)

// Response messages.
const (
	msgBadBody          = "Unable to parse request body."
	msgBodyTooLarge     = "Request body too large."
	msgInvalidPrintID   = "Invalid printid"
	msgNotFound         = "Not Found"
	msgMethodNotAllowed = "Method not allowed."
	msgInternal         = "Internal Server Error"
)

const defaultMaxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Options configures route registration.
type Options struct {
	BasePath     string
	MaxBodyBytes int64
	APIKeys      []string
}

// Server serves the print generate and display endpoints.
type Server struct {
	print         *printuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	opts          Options
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	printSvc *printuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	opts Options,
) *Server {
	if opts.BasePath == "" {
		opts.BasePath = "/CTS.Print"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		print:  printSvc,
		health: health,
		logger: logger,
		opts:   opts,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequestBody, http.StatusBadRequest, msgBadBody),
		fieldErrorHandler,
		sentinelHandler(domain.ErrInvalidPrintID, http.StatusBadRequest, msgInvalidPrintID),
		sentinelHandler(domain.ErrPrintIDNotFound, http.StatusNotFound, msgNotFound),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r gochi.Router) {
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	base := s.opts.BasePath
	r.With(BearerAuthMiddleware(s.opts.APIKeys)).Post(base, s.GeneratePrint)
	r.Get(base, s.DisplayPrint)
	r.Get(base+"/Display", s.DisplayPrint)

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// GeneratePrint handles POST {base_path}.
func (s *Server) GeneratePrint(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeText(w, http.StatusBadRequest, msgBadBody)
		return
	}

	doc, err := s.print.Generate(r.Context(), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{PrintID: doc.Key.String()})
}

// DisplayPrint handles GET {base_path} and GET {base_path}/Display.
func (s *Server) DisplayPrint(w http.ResponseWriter, r *http.Request) {
	var printID openapi_types.UUID
	if err := runtime.BindQueryParameter("form", true, true, "printid", r.URL.Query(), &printID); err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidPrintID, err))
		return
	}

	content, err := s.print.Retrieve(r.Context(), printID.String())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

type generateResponse struct {
	PrintID string `json:"printID"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeText(w, status, message)
		return true
	}
}

func fieldErrorHandler(w http.ResponseWriter, err error) bool {
	var fe *domain.FieldError
	if !errors.As(err, &fe) {
		return false
	}
	writeText(w, http.StatusBadRequest, fe.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeText(w, http.StatusInternalServerError, msgInternal)
}

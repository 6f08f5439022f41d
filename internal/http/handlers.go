package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/core"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/llm"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/store"
	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// Options tunes the HTTP surface.
type Options struct {
	// MaxUploadBytes caps the multipart body of an injury upload.
	MaxUploadBytes int64
	// MetricsPath is where the prometheus handler is mounted.  Empty disables it.
	MetricsPath string
	// Gatherer backs the metrics endpoint.  Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to an http.Server.
type Server struct {
	Store      *store.Store
	Education  *core.EducationService
	Chat       *core.ChatService
	Injury     *core.InjuryService
	Assessment *core.AssessmentService
	Log        *logger.Logger

	opts   Options
	router chi.Router
}

// NewServer constructs a Server and its routes.
func NewServer(st *store.Store, education *core.EducationService, chat *core.ChatService,
	injury *core.InjuryService, assessment *core.AssessmentService, l *logger.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		Store:      st,
		Education:  education,
		Chat:       chat,
		Injury:     injury,
		Assessment: assessment,
		Log:        l,
		opts:       opts,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP dispatches to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.MetricsPath != "" {
		r.Method(http.MethodGet, s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/patients", func(r chi.Router) {
			r.Post("/", s.handleCreatePatient)
			r.Get("/", s.handleListPatients)
			r.Route("/{patientID}", func(r chi.Router) {
				r.Get("/", s.handleGetPatient)
				r.Post("/materials", s.handleGenerateMaterial)
				r.Get("/chat", s.handleChatHistory)
				r.Post("/chat", s.handleAsk)
				r.Delete("/chat", s.handleClearChat)
				r.Post("/assessment", s.handleGenerateAssessment)
				r.Get("/assessment", s.handleGetAssessment)
				r.Post("/assessment/responses", s.handleSubmitAssessment)
			})
		})
		r.Get("/materials", s.handleListMaterials)
		r.Delete("/materials/{materialID}", s.handleRemoveMaterial)
		r.Post("/injury-assessments", s.handleAnalyzeInjury)
		r.Get("/injury-assessments", s.handleListInjuries)
		r.Get("/analytics", s.handleAnalytics)
	})
	return r
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var in pkg.PatientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	p, err := s.Store.CreatePatient(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.ListPatients())
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.Patient(chi.URLParam(r, "patientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGenerateMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := s.Education.Generate(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, s.Store.ListMaterials(pkg.MaterialFilter{
		PatientName: q.Get("patient_name"),
		Condition:   q.Get("condition"),
	}))
}

func (s *Server) handleRemoveMaterial(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.RemoveMaterial(r.Context(), chi.URLParam(r, "materialID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.Chat.History(chi.URLParam(r, "patientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	pair, err := s.Chat.Ask(r.Context(), chi.URLParam(r, "patientID"), req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	if err := s.Chat.Clear(r.Context(), chi.URLParam(r, "patientID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.Assessment.Generate(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.Assessment.Get(chi.URLParam(r, "patientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// submitRequest carries answers keyed by question index.  JSON object keys
// are decimal strings, e.g. {"answers": {"0": "Option A"}}.
type submitRequest struct {
	Answers map[int]string `json:"answers"`
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	result, err := s.Assessment.Submit(r.Context(), chi.URLParam(r, "patientID"), req.Answers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAnalyzeInjury accepts multipart/form-data with an "image" file and
// "description", "patient_name" and "patient_age" fields.
func (s *Server) handleAnalyzeInjury(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "upload too large"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid multipart form"})
		return
	}

	req := core.InjuryRequest{
		Description: r.FormValue("description"),
		PatientName: strings.TrimSpace(r.FormValue("patient_name")),
	}
	if age := strings.TrimSpace(r.FormValue("patient_age")); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "patient_age must be a non-negative integer"})
			return
		}
		req.PatientAge = n
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read image"})
			return
		}
		req.Image = data
		req.ImageMIME = header.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read image"})
		return
	}

	a, err := s.Injury.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListInjuries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Injury.List())
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.BuildReport(s.Store.Snapshot()))
}

type errorBody struct {
	Error       string   `json:"error"`
	Fields      []string `json:"fields,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	RawResponse string   `json:"raw_response,omitempty"`
}

// writeError maps service errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *store.ValidationError
		generation *llm.GenerationError
		malformed  *llm.MalformedResponseError
		persist    *store.PersistenceError
	)
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}

	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		body.Fields = validation.Fields
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &malformed):
		status = http.StatusBadGateway
		body.RawResponse = malformed.Raw
	case errors.As(err, &generation):
		status = http.StatusBadGateway
		body.Reason = string(generation.Reason)
	case errors.As(err, &persist):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		s.Log.WithComponent("http").
			WithField("request_id", middleware.GetReqID(r.Context())).
			WithError(err).
			Error("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"rxdesk/m/domain"
	"rxdesk/m/internal/metrics"
	"rxdesk/m/internal/pipeline"
	"rxdesk/m/internal/store"
)

type ctxKey string

const ctxStaff ctxKey = "staff"

// Options tune the HTTP surface.
type Options struct {
	Secret            string
	MaxUploadBytes    int64
	PrescriptionRate  float64
	PrescriptionBurst int
	CORSOrigins       []string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	pipeline  *pipeline.Pipeline
	metrics   *metrics.Metrics
	log       zerolog.Logger
	secret    string
	maxUpload int64
	limiter   *rate.Limiter
	origins   []string
	validate  *validator.Validate
}

// New constructs a Handler.
func New(db *sqlx.DB, p *pipeline.Pipeline, m *metrics.Metrics, log zerolog.Logger, opts Options) *Handler {
	limit := rate.Limit(opts.PrescriptionRate)
	if opts.PrescriptionRate <= 0 {
		limit = rate.Inf
	}
	burst := opts.PrescriptionBurst
	if burst <= 0 {
		burst = 1
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Handler{
		store:     store.New(db),
		pipeline:  p,
		metrics:   m,
		log:       log,
		secret:    opts.Secret,
		maxUpload: maxUpload,
		limiter:   rate.NewLimiter(limit, burst),
		origins:   origins,
		validate:  validator.New(),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/prescriptions", func(r chi.Router) {
			r.With(rateLimit(h.limiter)).Post("/", h.submitPrescription)
			r.Post("/parsed", h.submitParsedPrescription)
		})

		pr.Route("/drugs", func(r chi.Router) {
			r.Get("/", h.listDrugs)
			r.With(requireRole(domain.RoleOwner)).Put("/", h.upsertDrug)
			r.Get("/{name}", h.getDrug)
		})

		pr.Route("/inventory", func(r chi.Router) {
			r.Use(requireRole(domain.RoleOwner))
			r.Get("/tables", h.listTables)
			r.Get("/tables/{name}", h.describeTable)
			r.Post("/query", h.executeQuery)
		})

		pr.Get("/sales", h.listSales)
		pr.Get("/reports/sales/daily", h.dailySales)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// bind decodes and validates a JSON body, answering 400 itself on failure.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := decodeJSON(r, dest); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"logstudio/internal/handlers"
	"logstudio/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	EntryService   service.EntryService
	JournalService service.JournalService
	SystemService  service.SystemService

	// AdminSecret gates mutating routes; empty leaves them open.
	AdminSecret        string
	CORSAllowedOrigins []string
	// WriteRateLimit is the number of mutating requests per minute per client IP; 0 disables.
	WriteRateLimit int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.CORSAllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	entryHandler := handlers.NewEntryHandler(deps.EntryService)
	journalHandler := handlers.NewJournalHandler(deps.JournalService)
	healthHandler := handlers.NewHealthHandler(deps.SystemService)
	seedHandler := handlers.NewSeedHandler(deps.SystemService)

	limiter := NewRateLimiter(deps.WriteRateLimit)
	// The limiter runs first so rejected secrets count against the client too.
	gated := chi.Chain(limiter.Middleware, AdminAuth(deps.AdminSecret))

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Get("/openapi.json", OpenAPISpec)
		r.Get("/docs", APIDocs)
		r.With(gated...).Method(http.MethodPost, "/seed", seedHandler)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entryHandler.List)
			r.With(gated...).Post("/", entryHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", entryHandler.Get)
				r.With(gated...).Put("/", entryHandler.Update)
				r.With(gated...).Delete("/", entryHandler.Delete)

				r.Get("/updates", entryHandler.ListUpdates)
				r.With(gated...).Post("/updates", entryHandler.AppendUpdate)
				r.With(gated...).Post("/promote", entryHandler.Promote)
			})
		})

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", journalHandler.List)
			r.With(gated...).Post("/", journalHandler.Create)

			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", journalHandler.Get)
				r.With(gated...).Put("/", journalHandler.Update)
				r.With(gated...).Delete("/", journalHandler.Delete)
			})
		})
	})

	return r
}

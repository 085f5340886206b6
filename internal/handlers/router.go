package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mkisten/UserBankingService/docs"
	"github.com/mkisten/UserBankingService/internal/metrics"
	mW "github.com/mkisten/UserBankingService/internal/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// Pinger reports database liveness for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Tokens         mW.TokenParser
	DB             Pinger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter assembles the HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(metrics.InstrumentHandler)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Use(mW.Authenticate(cfg.Tokens))

	r.Get("/health", healthHandler(cfg.DB))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Get("/v3/api-docs", apiDocs)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", cfg.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireUser)

			r.Get("/users/search", cfg.Users.Search)
			r.Put("/users/emails", cfg.Users.AddEmail)
			r.Delete("/users/emails", cfg.Users.RemoveEmail)
			r.Put("/users/phones", cfg.Users.AddPhone)
			r.Delete("/users/phones", cfg.Users.RemovePhone)
			r.Post("/users/transfers", cfg.Users.Transfer)
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func apiDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, "documentation unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

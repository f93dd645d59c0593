package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-directory/internal/auth"
	"github.com/ovaphlow/pitchfork/service-directory/internal/language"
	"github.com/ovaphlow/pitchfork/service-directory/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-directory/internal/reply"
	"github.com/ovaphlow/pitchfork/service-directory/internal/user"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/utilities"
)

// Deps is everything RegisterRoutes mounts.
type Deps struct {
	Logger    *zap.SugaredLogger
	Languages *language.Handler
	Users     *user.Handler
	Tokens    auth.TokenParser
	Metrics   metrics.Recorder
	Gatherer  prometheus.Gatherer
	// TestRoutes mounts the login-history cleanup endpoint.
	TestRoutes bool
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

type requestIDKey struct{}

// RequestIDFromContext returns the id RequestIDMiddleware assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware keeps an incoming X-Request-ID or assigns a ksuid.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = utilities.NewKSUID()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// LoggingMiddleware logs each request at info level with its request id.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Infow("http request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500 and logs it.
func RecoveryMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Errorw("panic in handler",
						"request_id", RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"panic", rec,
						zap.StackSkip("stack", 1),
					)
					reply.Write(w, reply.Internal())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			if h.Get("Content-Security-Policy") == "" {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			// HSTS only over TLS
			if r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts the API on a chi router.
func RegisterRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(d.Logger),
		LoggingMiddleware(d.Logger),
		SecurityHeadersMiddleware(),
		middleware.StripSlashes,
	)
	if d.Metrics != nil {
		r.Use(metrics.Middleware(d.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		reply.Write(w, reply.OK("ok"))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	gate := auth.RequireToken(d.Tokens, d.Logger)
	h := reply.Handle

	r.Route("/api/languages", func(r chi.Router) {
		r.Get("/", h(d.Languages.List))
		r.Get("/{id}", h(d.Languages.Get))
		r.Get("/{id}/countries", h(d.Languages.CountriesForLanguage))

		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.Post("/", h(d.Languages.Create))
			r.Post("/requests", h(d.Languages.CreateRequest))
			r.Patch("/requests/{id}", h(d.Languages.UpdateRequest))
			r.Patch("/{id}", h(d.Languages.Update))
			r.Delete("/{id}", h(d.Languages.Delete))
		})
	})

	r.Get("/api/countries/{country}/languages", h(d.Languages.LanguagesForCountry))

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h(d.Users.List))
		r.Get("/{id}", h(d.Users.Get))
		r.Post("/login", h(d.Users.Login))

		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.Post("/", h(d.Users.Create))
			r.Patch("/{id}", h(d.Users.Update))
			r.Delete("/{id}", h(d.Users.Delete))
			r.Post("/logout/{user_id}", h(d.Users.Logout))
			if d.TestRoutes {
				r.Delete("/testing/{user_id}", h(d.Users.ClearHistory))
			}
		})
	})

	return r
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hindsight-journal/hindsight/pkg/usecase"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
)

// maxRequestBytes caps JSON request bodies
const maxRequestBytes = 1 << 20

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
	auth   *JWTAuth
}

type Options func(*Server)

// WithJWTAuth requires a valid bearer token on every /api route
func WithJWTAuth(auth *JWTAuth) Options {
	return func(s *Server) {
		s.auth = auth
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if s.auth != nil {
			r.Use(authMiddleware(s.auth))
		}

		r.Get("/status", s.statusHandler)

		r.Route("/index", func(r chi.Router) {
			r.Post("/update", s.indexHandler(false))
			r.Post("/rebuild", s.indexHandler(true))
		})

		r.Route("/search", func(r chi.Router) {
			r.Post("/", s.searchHandler)
			r.Post("/emotional", s.emotionalSearchHandler)
			r.Post("/temporal", s.temporalSearchHandler)
			r.Post("/thematic", s.thematicSearchHandler)
		})

		r.Post("/context", s.contextHandler)
		r.Post("/ask", s.askHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

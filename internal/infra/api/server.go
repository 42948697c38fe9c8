package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"press-subscription/internal/infra/logging"
	"press-subscription/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	// Ping backs /health; nil reports healthy unconditionally.
	Ping func(ctx context.Context) error
}

// Server exposes the user, publication and subscription use cases over JSON.
type Server struct {
	users    usecase.UserUseCase
	pubs     usecase.PublicationUseCase
	subs     usecase.SubscriptionUseCase
	opts     Options
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewServer(
	users usecase.UserUseCase,
	pubs usecase.PublicationUseCase,
	subs usecase.SubscriptionUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		users:    users,
		pubs:     pubs,
		subs:     subs,
		opts:     opts,
		validate: newValidator(),
		log:      logging.OrNop(logger),
	}
}

// Routes builds the full router including middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerRequestID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateMe)
			r.Post("/me/password", s.handleChangePassword)
		})
	})

	r.With(s.requireAuth).Patch("/api/admin/users/{id}", s.handleSetUserStatus)

	r.Route("/api/publications", func(r chi.Router) {
		r.Get("/", s.handleListPublications)
		r.With(s.optionalAuth).Get("/{id}", s.handleGetPublication)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreatePublication)
			r.Get("/all", s.handleListAllPublications)
			r.Patch("/{id}", s.handleUpdatePublication)
			r.Delete("/{id}", s.handleDeletePublication)
		})
	})

	r.Route("/api/subscriptions", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/", s.handleCreateSubscription)
		r.Get("/my", s.handleListMySubscriptions)
		r.Delete("/{id}", s.handleCancelSubscription)
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Subscription Management API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ping(ctx); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListenAndServe runs h on addr until ctx is cancelled, then drains in-flight
// requests for up to grace.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, grace time.Duration, logger *zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.OrNop(logger).Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/errutil"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// DefaultSecretHeader is the request header carrying the webhook shared
// secret when no custom header name is configured
const DefaultSecretHeader = "X-Warden-Secret"

type Server struct {
	router       *chi.Mux
	approvalUC   *usecase.ApprovalUseCase
	secret       string
	secretHeader string
}

type Options func(*Server)

// WithWebhookSecret configures shared-secret verification on the approval
// webhook. headerName falls back to DefaultSecretHeader when empty.
func WithWebhookSecret(secret, headerName string) Options {
	return func(s *Server) {
		s.secret = secret
		if headerName != "" {
			s.secretHeader = headerName
		}
	}
}

func New(approvalUC *usecase.ApprovalUseCase, opts ...Options) (*Server, error) {
	if approvalUC == nil {
		return nil, goerr.New("approval use case is required")
	}

	r := chi.NewRouter()

	s := &Server{
		router:       r,
		approvalUC:   approvalUC,
		secretHeader: DefaultSecretHeader,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck // header already committed
	})

	// Approval webhook - no session auth, uses shared-secret verification
	r.Route("/webhook", func(r chi.Router) {
		r.Use(sharedSecretMiddleware(s.secret, s.secretHeader))
		r.Post("/approval", approvalHandler(s.approvalUC))
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// sharedSecretMiddleware rejects requests whose secret header does not match
// the configured shared secret. An empty configured secret disables the
// check (local development).
func sharedSecretMiddleware(secret, headerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(headerName)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				errutil.HandleHTTP(r.Context(), w, goerr.New("webhook shared secret mismatch"), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
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
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

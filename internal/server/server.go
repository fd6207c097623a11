// Package server exposes artifact operations over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	"github.com/akuity/artifact-resolver/internal/config"
	"github.com/akuity/artifact-resolver/internal/logging"
)

// Server is an interface for the artifact server.
type Server interface {
	// Serve starts the server using the specified net.Listener and blocks until
	// the provided context is canceled.
	Serve(ctx context.Context, l net.Listener) error
}

type server struct {
	cfg        config.ServerConfig
	repo       *artifacts.Repository
	downloader *artifacts.Downloader
	resolver   *artifacts.Resolver
}

// NewServer returns an implementation of the Server interface serving the
// credentials in repo. repo may be nil, in which case artifacts are disabled
// and artifact operations respond accordingly.
func NewServer(cfg config.ServerConfig, repo *artifacts.Repository) Server {
	return &server{
		cfg:        cfg,
		repo:       repo,
		downloader: artifacts.NewDownloader(repo),
		resolver:   artifacts.NewResolver(repo, nil),
	}
}

func (s *server) Serve(ctx context.Context, l net.Listener) error {
	logger := logging.LoggerFromContext(ctx)

	handler := s.handler(logger)

	// Sometimes a permissive CORS policy is useful during local development.
	if s.cfg.PermissiveCORSPolicyEnabled {
		handler = cors.New(cors.Options{
			AllowCredentials: true,
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
		}).Handler(handler)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	logger.Info(
		"Server is listening",
		"address", l.Addr().String(),
		"artifactsEnabled", s.repo != nil,
	)

	select {
	case <-ctx.Done():
		logger.Info("Gracefully stopping server...")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.cfg.GracefulShutdownTimeout,
		)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handler returns the server's routes. JSON responses are compressed when the
// client accepts it. Artifact bytes are passed through untouched.
func (s *server) handler(logger *logging.Logger) http.Handler {
	router := mux.NewRouter()
	router.StrictSlash(true)
	router.Use(withLogger(logger))

	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.Handle(
		"/version",
		gzhttp.GzipHandler(http.HandlerFunc(s.version)),
	).Methods(http.MethodGet)

	// Registered on the root router so a method mismatch is answered with 405.
	router.HandleFunc("/artifacts/fetch", s.fetch).Methods(http.MethodPut)
	router.Handle(
		"/artifacts/credentials",
		gzhttp.GzipHandler(http.HandlerFunc(s.listCredentials)),
	).Methods(http.MethodGet)
	router.Handle(
		"/artifacts/{type}/account/{accountName}/names",
		gzhttp.GzipHandler(http.HandlerFunc(s.listNames)),
	).Methods(http.MethodGet)
	router.Handle(
		"/artifacts/{type}/account/{accountName}/names/{artifactName}/versions",
		gzhttp.GzipHandler(http.HandlerFunc(s.listVersions)),
	).Methods(http.MethodGet)

	return router
}

// withLogger attaches a request-scoped logger to every request's context.
func withLogger(logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.WithValues(
				"method", r.Method,
				"path", r.URL.Path,
			)
			reqLogger.Trace("handling request")
			next.ServeHTTP(
				w,
				r.WithContext(logging.ContextWithLogger(r.Context(), reqLogger)),
			)
		})
	}
}

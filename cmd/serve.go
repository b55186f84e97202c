package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/odp-liege/filter"
	"github.com/s0up4200/odp-liege/liege"
)

const maxServeLimit = 1000

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve garages and disabled parkings as JSON over HTTP",
	Long: `Start an HTTP server exposing the datasets as JSON.

Endpoints:
  GET /garages?limit=N&filter=EXPR&preset=NAME
  GET /disabled-parkings?limit=N&filter=EXPR&preset=NAME
  GET /healthz

Every request to a dataset endpoint performs exactly one upstream request.`,
	PreRunE: initializeApp,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(client, filters, effectiveLimit(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-cmd.Context().Done():
	}

	logger.Info().Msg("Shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// server holds the dependencies of the HTTP handlers
type server struct {
	api          liege.API
	filters      *filter.Manager
	defaultLimit int
	logger       zerolog.Logger
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Records []T `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newRouter(api liege.API, filters *filter.Manager, defaultLimit int, logger zerolog.Logger) http.Handler {
	s := &server{
		api:          api,
		filters:      filters,
		defaultLimit: defaultLimit,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/garages", s.handleGarages)
	r.Get("/disabled-parkings", s.handleDisabledParkings)

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *server) handleGarages(w http.ResponseWriter, r *http.Request) {
	n, f, ok := s.parseQuery(w, r)
	if !ok {
		return
	}

	garages, err := s.api.Garages(r.Context(), n)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	garages, err = filter.Garages(f, garages)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, listResponse[liege.Garage]{Count: len(garages), Records: garages})
}

func (s *server) handleDisabledParkings(w http.ResponseWriter, r *http.Request) {
	n, f, ok := s.parseQuery(w, r)
	if !ok {
		return
	}

	spots, err := s.api.DisabledParkings(r.Context(), n)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	spots, err = filter.DisabledParkings(f, spots)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, listResponse[liege.DisabledParking]{Count: len(spots), Records: spots})
}

// parseQuery reads limit, filter and preset; it answers 400 itself on bad input
func (s *server) parseQuery(w http.ResponseWriter, r *http.Request) (int, *filter.Filter, bool) {
	query := r.URL.Query()

	n := s.defaultLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxServeLimit {
			s.renderStatus(w, r, http.StatusBadRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", maxServeLimit))
			return 0, nil, false
		}
		n = parsed
	}

	f, err := s.filters.Resolve(query.Get("filter"), query.Get("preset"))
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, err.Error())
		return 0, nil, false
	}

	return n, f, true
}

func (s *server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logger.Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request failed")
	s.renderStatus(w, r, status, err.Error())
}

func (s *server) renderStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// statusFor maps client and filter errors to HTTP status codes
func statusFor(err error) int {
	var connErr *liege.ConnectionError
	var evalErr *filter.EvaluationError
	switch {
	case errors.As(err, &connErr) && connErr.IsTimeout():
		return http.StatusGatewayTimeout
	case errors.Is(err, liege.ErrConnection), errors.Is(err, liege.ErrData):
		return http.StatusBadGateway
	case errors.As(err, &evalErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

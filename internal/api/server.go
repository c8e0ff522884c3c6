// Package api serves transcript analysis over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/output"
	"github.com/ccollicutt/chatstat/pkg/parser"
	"github.com/ccollicutt/chatstat/pkg/stats"
	"github.com/ccollicutt/chatstat/pkg/store"
	"github.com/ccollicutt/chatstat/pkg/webhook"
)

const shutdownTimeout = 10 * time.Second

// ReportPublisher announces finished reports.
type ReportPublisher interface {
	PublishReport(report *output.Report) error
}

// Server is the HTTP API.
type Server struct {
	router    *chi.Mux
	cfg       *config.Config
	store     *store.Store
	webhooks  *webhook.Client
	publisher ReportPublisher
	logger    *slog.Logger

	notifications sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables persistence and the stored-transcript endpoints.
func WithStore(st *store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithWebhooks sends every upload report to the configured webhooks.
func WithWebhooks(c *webhook.Client) Option {
	return func(s *Server) {
		s.webhooks = c
	}
}

// WithPublisher publishes every upload report.
func WithPublisher(p ReportPublisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the API server and its routes.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/transcripts", func(r chi.Router) {
		r.Post("/", s.createTranscript)
		r.Get("/", s.listTranscripts)
		r.Get("/{id}/records", s.transcriptRecords)
		r.Get("/{id}/report", s.transcriptReport)
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.WaitNotifications()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// WaitNotifications blocks until pending webhook and publish calls finish.
func (s *Server) WaitNotifications() {
	s.notifications.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createTranscript handles POST /api/v1/transcripts
func (s *Server) createTranscript(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "transcript too large")
			return
		}
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	text := strings.TrimPrefix(string(body), "\uFEFF")
	parsed := parser.ParseDetailed(text, s.cfg.ParserOptions()...)
	if len(parsed.Records) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no valid messages found")
		return
	}

	source := r.URL.Query().Get("name")
	if source == "" {
		source = "upload"
	}

	report, err := s.analyze(r.Context(), parsed, []string{source}, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	report.Metadata.ContentHash = parser.ContentHash(text)

	if s.store != nil {
		id, err := s.store.SaveTranscript(r.Context(), source, s.cfg.ParseKey(text), parsed.Records)
		if err != nil {
			s.logger.Error("store transcript failed", "error", err)
			writeError(w, http.StatusInternalServerError, "storing transcript failed")
			return
		}
		report.Metadata.TranscriptID = id
	}

	writeJSON(w, http.StatusCreated, report)

	// Notifications outlive the request.
	ctx := context.WithoutCancel(r.Context())
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		s.notify(ctx, report)
	}()
}

// listTranscripts handles GET /api/v1/transcripts
func (s *Server) listTranscripts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	list, err := s.store.Transcripts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transcripts": list,
		"count":       len(list),
	})
}

// transcriptRecords handles GET /api/v1/transcripts/{id}/records
func (s *Server) transcriptRecords(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	id := chi.URLParam(r, "id")
	records, err := s.store.Records(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"records": output.NewRecordViews(records),
		"count":   len(records),
	})
}

// transcriptReport handles GET /api/v1/transcripts/{id}/report
func (s *Server) transcriptReport(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	info, err := s.store.Transcript(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	records, err := s.store.Records(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	parsed := &parser.Result{Records: records}
	report, err := s.analyze(r.Context(), parsed, []string{info.Source}, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	report.Metadata.TranscriptID = info.ID

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) analyze(ctx context.Context, parsed *parser.Result, sources []string, f filter) (*output.Report, error) {
	opts := []stats.AnalyzerOption{
		stats.WithDateRange(f.from, f.to),
		stats.WithAuthorFilter(f.authors),
	}
	result, err := stats.NewAnalyzer(s.cfg.Stats, opts...).Analyze(ctx, parsed.Records)
	if err != nil {
		return nil, err
	}

	report := output.NewReport(parsed, result, sources)
	if !f.from.IsZero() || !f.to.IsZero() {
		report.Metadata.DateRange = &output.DateRange{From: f.from, To: f.to}
	}
	return report, nil
}

func (s *Server) notify(ctx context.Context, report *output.Report) {
	if s.webhooks != nil && len(s.cfg.Webhooks) > 0 {
		s.webhooks.Notify(ctx, report, s.cfg.Webhooks)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(report); err != nil {
			s.logger.Warn("publish report failed", "report_id", report.Metadata.ID, "error", err)
		}
	}
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("store query failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-promptdiff/internal/compare"
	"github.com/example/go-promptdiff/internal/config"
	"github.com/example/go-promptdiff/internal/render"
	"github.com/example/go-promptdiff/internal/report"
	"github.com/go-playground/validator/v10"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Comparer aligns texts. *compare.Service implements it.
type Comparer interface {
	Compare(a, b string) (compare.Comparison, error)
	CompareBatch(ctx context.Context, pairs []compare.Pair) ([]compare.Comparison, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 20,
		workers:        4,
		requestTimeout: 10 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the maximum accepted request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithWorkers sets the maximum number of requests aligning at once.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	cmp      Comparer
	opts     options
	sem      chan struct{}
	log      *slog.Logger
	validate *validator.Validate
}

// NewHandler returns an http.Handler that serves /health, POST /v1/diff and
// POST /v1/diff/batch.
func NewHandler(cmp Comparer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		cmp:      cmp,
		opts:     opts,
		log:      opts.logger,
		validate: validator.New(),
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/v1/diff", h.handleDiff)
	mux.HandleFunc("/v1/diff/batch", h.handleBatch)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type diffRequest struct {
	Name string `json:"name" validate:"max=200"`
	A    string `json:"a"`
	B    string `json:"b"`
}

type batchRequest struct {
	Pairs []compare.Pair `json:"pairs" validate:"required,min=1,max=100,dive"`
}

func (h *handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if !h.decode(w, r, &req) {
		return
	}

	format := negotiate(r)
	start := time.Now()

	var c compare.Comparison
	err := h.run(r.Context(), func(context.Context) error {
		var err error
		c, err = h.cmp.Compare(req.A, req.B)
		return err
	})
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		h.fail(w, r, err, slog.String("name", req.Name), slog.Int64("duration_ms", durationMS))
		return
	}

	h.log.InfoContext(r.Context(), "diff complete",
		slog.String("name", req.Name),
		slog.Int("a_tokens", len(c.A)),
		slog.Int("b_tokens", len(c.B)),
		slog.Int("edits", c.Stats.Edits()),
		slog.Int64("duration_ms", durationMS),
	)

	w.Header().Set("Content-Type", report.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_ = report.Write(w, format, render.Plain, report.NewDocument(req.Name, c))
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}

	format := negotiate(r)
	start := time.Now()

	var results []compare.Comparison
	err := h.run(r.Context(), func(ctx context.Context) error {
		var err error
		results, err = h.cmp.CompareBatch(ctx, req.Pairs)
		return err
	})
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		h.fail(w, r, err, slog.Int("pairs", len(req.Pairs)), slog.Int64("duration_ms", durationMS))
		return
	}

	docs := make([]report.Document, len(results))
	for i, c := range results {
		docs[i] = report.NewDocument(req.Pairs[i].Name, c)
	}

	h.log.InfoContext(r.Context(), "batch diff complete",
		slog.Int("pairs", len(req.Pairs)),
		slog.Int64("duration_ms", durationMS),
	)

	w.Header().Set("Content-Type", report.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_ = report.WriteBatch(w, format, render.Plain, docs)
}

// decode reads a size-limited JSON body into v and validates it. It writes
// the error response itself and reports whether the handler may continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
			return false
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	body := http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return false
	}

	return true
}

// run executes fn in a worker slot under the request timeout. Alignment
// itself cannot be interrupted, so on timeout fn keeps its slot until it
// returns and its result is dropped.
func (h *handler) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, h.opts.requestTimeout)
	defer cancel()

	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	done := make(chan error, 1)
	go func() {
		if h.sem != nil {
			defer func() { <-h.sem }()
		}
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// statusClientClosedRequest is nginx's non-standard code for a request whose
// client disconnected before the response was ready.
const statusClientClosedRequest = 499

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))

	switch {
	case errors.Is(err, compare.ErrTooManyTokens):
		h.log.WarnContext(r.Context(), "diff rejected", attrs...)
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, context.Canceled):
		h.log.InfoContext(r.Context(), "client gone", attrs...)
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		h.log.WarnContext(r.Context(), "diff timed out", attrs...)
		writeError(w, http.StatusGatewayTimeout, "diff timed out")
	default:
		h.log.ErrorContext(r.Context(), "diff failed", attrs...)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// negotiate picks the response format from the Accept header, defaulting
// to JSON.
func negotiate(r *http.Request) report.Format {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
			return report.Msgpack
		case "application/yaml", "application/x-yaml", "text/yaml":
			return report.YAML
		case "text/plain":
			return report.Text
		case "application/json":
			return report.JSON
		}
	}
	return report.JSON
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	cmp             Comparer
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, cmp Comparer) *Server {
	return &Server{
		cfg:             cfg,
		cmp:             cmp,
		logger:          slog.Default(),
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	h := NewHandler(s.cmp,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.logger),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}

package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"smetka/internal/cache"
	applog "smetka/internal/log"
	"smetka/internal/middleware/ratelimit"
	"smetka/internal/middleware/security"
	"smetka/internal/middleware/trace"
	"smetka/internal/services"
	"smetka/internal/sheets"
	appweb "smetka/web"
)

// Options are the collaborators of the server. Only Service is required.
type Options struct {
	Service *services.StatementService
	Payers  sheets.PayerReader
	// PayerWriter enables POST /api/payers; nil keeps the directory read-only.
	PayerWriter sheets.PayerWriter
	// Ping reports backend health for /readyz.
	Ping           func(ctx context.Context) error
	Logger         *applog.Logger
	RateLimit      ratelimit.Config
	TrustedProxies []string
}

// Server serves the calculator UI and its JSON API.
type Server struct {
	http.Server

	service     *services.StatementService
	payers      sheets.PayerReader
	payerWriter sheets.PayerWriter
	ping        func(ctx context.Context) error
	templates   *template.Template

	logger   *applog.Logger
	events   *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	now          func() time.Time
	startedAt    time.Time
	shutdownOnce sync.Once

	calculations atomic.Int64
	documents    atomic.Int64
	jobs         atomic.Int64
}

// NewServer configures routes, middleware and templates, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		service:     opts.Service,
		payers:      opts.Payers,
		payerWriter: opts.PayerWriter,
		ping:        opts.Ping,
		logger:      logger,
		events:      applog.NewStructuredLogger(logger),
		limiter:     ratelimit.NewLimiter(opts.RateLimit),
		detector:    security.NewDetector(),
		now:         time.Now,
		startedAt:   time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("POST /calculate", security.NoStore(http.HandlerFunc(s.handleCalculate)))
	mux.Handle("POST /form", security.NoStore(http.HandlerFunc(s.handleForm)))

	mux.HandleFunc("POST /api/calculate", s.handleAPICalculate)
	mux.HandleFunc("GET /api/words", s.handleWords)
	mux.HandleFunc("GET /api/quarter", s.handleQuarter)
	mux.HandleFunc("POST /api/render-jobs", s.handleRenderJob)
	mux.HandleFunc("GET /api/payers", s.handleListPayers)
	mux.HandleFunc("POST /api/payers", s.handleSavePayer)
	mux.HandleFunc("GET /api/payers/{eik}", s.handleFindPayer)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = chain(mux,
		s.tracer.Middleware,
		applog.Middleware(logger),
		applog.RequestIDMiddleware(trace.RequestIDFromRequest),
		headers.Middleware,
		s.detector.Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit),
	)
	s.Addr = addr
	s.ReadHeaderTimeout = 10 * time.Second

	return s
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Твърде много заявки. Опитайте отново след минута.").Write(w)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}

// payerStats is implemented by cached payer directories.
type payerStats interface {
	Stats() cache.Stats
}

// Shutdown stops background routines and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

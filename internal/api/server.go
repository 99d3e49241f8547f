package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"menupos/internal/config"
	"menupos/internal/domain"
	"menupos/internal/export"
	"menupos/internal/receipt"
	"menupos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Server is the loopback HTTP bridge the UI shell drives the core
// through. It mirrors the IPC surface of the original desktop client.
type Server struct {
	cfg      config.BridgeConfig
	orders   *service.OrderService
	menu     *service.MenuService
	syncer   domain.Syncer
	monitor  domain.Connectivity
	sessions domain.SessionStore
	renderer *receipt.Renderer
	exporter *export.Exporter
	logger   *zerolog.Logger

	server   *http.Server
	limiters sync.Map // map[string]*rate.Limiter
}

func NewServer(
	cfg config.BridgeConfig,
	orders *service.OrderService,
	menu *service.MenuService,
	syncer domain.Syncer,
	monitor domain.Connectivity,
	sessions domain.SessionStore,
	renderer *receipt.Renderer,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:      cfg,
		orders:   orders,
		menu:     menu,
		syncer:   syncer,
		monitor:  monitor,
		sessions: sessions,
		renderer: renderer,
		exporter: exporter,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/online", srv.handleOnline)
	mux.HandleFunc("/api/v1/orders", srv.handleOrders)
	mux.HandleFunc("/api/v1/orders/", srv.handleOrderByID)
	mux.HandleFunc("/api/v1/orders/pending", srv.handlePendingOrders)
	mux.HandleFunc("/api/v1/sync", srv.handleSync)
	mux.HandleFunc("/api/v1/menu", srv.handleMenu)
	mux.HandleFunc("/api/v1/session", srv.handleSession)
	mux.HandleFunc("/api/v1/printers", srv.handlePrinters)
	mux.HandleFunc("/api/v1/receipt/preview", srv.handleReceiptPreview)
	mux.HandleFunc("/api/v1/export", srv.handleExport)

	handler := srv.loggingMiddleware(srv.authMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("bridge server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("bridge API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("bridge request")
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Auth.Enabled {
			if err := s.checkAuth(r); err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
		}

		if err := s.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkAuth(r *http.Request) error {
	header := strings.TrimSpace(strings.ToLower(s.cfg.Auth.Header))
	if header == "" {
		header = "x-api-key"
	}

	key := strings.TrimSpace(r.Header.Get(header))
	if key == "" {
		return fmt.Errorf("missing api key")
	}

	for _, known := range s.cfg.Auth.APIKeys {
		if subtle.ConstantTimeCompare([]byte(known), []byte(key)) == 1 {
			return nil
		}
	}
	return fmt.Errorf("invalid api key")
}

func (s *Server) checkRateLimit(r *http.Request) error {
	if s.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	if !s.getLimiter(s.clientKey(r)).Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (s *Server) clientKey(r *http.Request) string {
	header := strings.TrimSpace(strings.ToLower(s.cfg.Auth.Header))
	if header == "" {
		header = "x-api-key"
	}
	if key := strings.TrimSpace(r.Header.Get(header)); key != "" {
		return key
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (s *Server) getLimiter(key string) *rate.Limiter {
	if v, ok := s.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RPS), burst)
	actual, loaded := s.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

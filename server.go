package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// corsMiddleware handles CORS origin check
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logMiddleware tags the request with an id and writes one access log line per request.
func logMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		ip := r.Header.Get("X-Real-Ip")
		if ip == "" {
			ip, _, _ = net.SplitHostPort(r.RemoteAddr)
		}
		logger.Info("response",
			zap.String("requestID", requestID),
			zap.String("ip", ip),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Float64("ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}

// panicMiddleware handles panic errors to prevent server shutdown
func panicMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("recovered panic error", zap.Any("panic", err), zap.String("path", r.URL.Path))
				http.Error(w, internalServerError, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func NewRouter(handlers *Handlers, config *Config, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ping", PingHandler)
	mux.HandleFunc("/healthCheck", HealthCheckHandler)
	mux.HandleFunc("/status", handlers.StatusHandler)
	mux.HandleFunc("/address", handlers.AddressHandler)
	mux.HandleFunc("/validate", handlers.ValidateHandler)
	mux.HandleFunc("/voucher_hash", handlers.VoucherHashHandler)
	mux.HandleFunc("/voucher721", handlers.Voucher721Handler)
	mux.HandleFunc("/voucher1155", handlers.Voucher1155Handler)

	// Set middleware, from bottom to top
	commonHandler := corsMiddleware(config.Server.CORSAllowedOrigins, mux)
	commonHandler = logMiddleware(logger, commonHandler)
	commonHandler = panicMiddleware(logger, commonHandler)
	return commonHandler
}

// RunServer serves until ctx is cancelled, then drains in-flight requests.
func RunServer(ctx context.Context, handler http.Handler, config ServerConfig, logger *zap.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  40 * time.Second,
		WriteTimeout: config.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting voucher server", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server listener, err: %v", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down voucher server")
		return server.Shutdown(shutdownCtx)
	}
}

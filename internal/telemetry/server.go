package telemetry

import (
	"context"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ErrServe = errors.ErrorCode("telemetry_serve_failed")

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Handler serves the default registry.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve exposes Handler on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	errFactory := errors.New()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errFactory.Wrap(ErrServe, err)
	}

	return ServeListener(ctx, ln)
}

// ServeListener exposes Handler on ln until ctx is done.
func ServeListener(ctx context.Context, ln net.Listener) error {
	errFactory := errors.New()

	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errFactory.Wrap(ErrServe, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errFactory.Wrap(ErrServe, err)
		}
		return nil
	}
}

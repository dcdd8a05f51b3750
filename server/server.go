package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds the HTTP listener settings. Origins default to the
// local frontend dev ports.
type Config struct {
	Addr           string   `envconfig:"ADDR" split_words:"true" default:":8000"`
	RatePerMinute  int      `envconfig:"RATE_PER_MINUTE" split_words:"true" default:"60"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" split_words:"true" default:"http://localhost:3000,http://localhost:3001,http://localhost:3002,http://localhost:5173"`
}

// Run serves the handler until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func Run(ctx context.Context, cfg Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", cfg.Addr).Msg("http server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Breadlyy/honestSign/dispatch"
	"github.com/Breadlyy/honestSign/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP intake (POST /documents)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr: a.cfg.ListenAddr,
		Handler: dispatch.NewHandler(dispatch.HandlerOptions{
			Dispatcher:     a.dispatcher,
			RequestTimeout: 30 * time.Second,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stdlog.Printf("registrar listening on %s -> %s", a.cfg.ListenAddr, a.cfg.RegistryURL)
	stdlog.Printf("quota: strategy=%s limit=%d interval=%s maxAttempts=%d", a.cfg.Quota.Strategy, a.cfg.Quota.Limit, a.cfg.Quota.Interval, a.cfg.Retry.MaxAttempts)
	stdlog.Printf("send: maxInFlight=%d slotTimeout=%s httpTimeout=%s stats=%s", a.cfg.Send.MaxInFlight, a.cfg.Send.SlotTimeout, a.cfg.Send.HTTPTimeout, a.cfg.Stats.Backend)

	select {
	case <-ctx.Done():
		stdlog.Println("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.dispatcher.Shutdown()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		stdlog.Printf("graceful shutdown failed: %v", err)
	}

	dropped := a.dispatcher.Shutdown()
	if dropped > 0 {
		log.Warn(log.CatDispatch, "pending retries dropped at shutdown", "count", dropped)
	}
	return nil
}

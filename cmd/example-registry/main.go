// Command example-registry é um registry falso para rodar o registrar
// localmente: aceita POST de documentos, devolve um id e responde 429 quando
// a própria quota estoura.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/internal/log"
)

func main() {
	addr := pflag.String("listen", ":8090", "listen address")
	limit := pflag.Int("limit", 5, "accepted documents per interval before answering 429")
	interval := pflag.Duration("interval", time.Second, "quota interval")
	failRate := pflag.Float64("fail-rate", 0, "fraction of requests answered with 500")
	pflag.Parse()

	log.Init(os.Stderr, log.LevelInfo)

	if *limit <= 0 || *interval <= 0 {
		stdlog.Fatalf("limit and interval must be > 0")
	}
	lim := rate.NewLimiter(rate.Every(*interval / time.Duration(*limit)), *limit)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v3/lk/documents/create", registryHandler(lim, *failRate))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	stdlog.Printf("example registry listening on %s (limit=%d per %s)", *addr, *limit, *interval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stdlog.Fatalf("server error: %v", err)
	}
}

func registryHandler(lim *rate.Limiter, failRate float64) http.Handler {
	var seq atomic.Uint64
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			log.Warn(log.CatHTTP, "registry quota exceeded", "remote", r.RemoteAddr)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		var env domain.Envelope
		if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&env); err != nil {
			http.Error(w, "malformed document", http.StatusBadRequest)
			return
		}
		if env.Signature == "" {
			http.Error(w, "signature is required", http.StatusBadRequest)
			return
		}

		// falha determinística: uma a cada 1/failRate requisições
		n := float64(seq.Add(1))
		if failRate > 0 && int(n*failRate) > int((n-1)*failRate) {
			http.Error(w, "registry unavailable", http.StatusInternalServerError)
			return
		}

		id := uuid.NewString()
		log.Info(log.CatHTTP, "document registered", "id", id, "docID", env.Document.DocID, "products", len(env.Document.Products))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"value": id})
	})
}

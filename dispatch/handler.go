package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/internal/log"
)

// maxEnvelopeBytes limita o corpo aceito em POST /documents.
const maxEnvelopeBytes = 4 << 20

// Submitter é o que o intake precisa do Dispatcher.
type Submitter interface {
	SubmitAsync(doc domain.Document, signature string) domain.SubmissionID
	Status(ctx context.Context, id domain.SubmissionID) (domain.Status, bool)
	Snapshot(ctx context.Context) Snapshot
	Limit() int
	Interval() time.Duration
}

var _ Submitter = (*Dispatcher)(nil)

type HandlerOptions struct {
	Dispatcher Submitter
	// RequestTimeout é aplicado por requisição; 0 desliga.
	RequestTimeout time.Duration
}

// NewHandler monta o intake HTTP:
//
//	POST /documents       envelope {"document": ..., "signature": ...} -> 202 {"id": ...}
//	GET  /documents/{id}  status da submissão
//	GET  /stats           quota, janelas, retentativas pendentes e totais
//	GET  /healthz
//
// Uma submissão aceita nunca é recusada por quota; ela só é adiada.
func NewHandler(opts HandlerOptions) http.Handler {
	h := &intake{d: opts.Dispatcher}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.quotaHeaders)
	r.Use(requestLogger)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Post("/documents", h.submit)
	r.Get("/documents/{id}", h.status)
	r.Get("/stats", h.stats)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return r
}

type intake struct {
	d Submitter
}

func (h *intake) quotaHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Quota-Limit", formatInt(h.d.Limit()))
		w.Header().Set("X-Quota-Interval", formatSeconds(h.d.Interval()))
		next.ServeHTTP(w, r)
	})
}

func (h *intake) submit(w http.ResponseWriter, r *http.Request) {
	var env domain.Envelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err := dec.Decode(&env); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "envelope too large")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed envelope: "+err.Error())
		return
	}
	if strings.TrimSpace(env.Signature) == "" {
		writeError(w, http.StatusBadRequest, "signature is required")
		return
	}

	id := h.d.SubmitAsync(env.Document, env.Signature)
	log.Debug(log.CatHTTP, "submission accepted", "id", id, "docID", env.Document.DocID)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": string(id)})
}

func (h *intake) status(w http.ResponseWriter, r *http.Request) {
	id := domain.SubmissionID(chi.URLParam(r, "id"))
	st, ok := h.d.Status(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown submission")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *intake) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Snapshot(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorErr(log.CatHTTP, "write response failed", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug(log.CatHTTP, "request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "reqID", middleware.GetReqID(r.Context()))
	})
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Breadlyy/honestSign/dispatch/application"
	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/dispatch/infra"
	"github.com/Breadlyy/honestSign/internal/log"
)

// DefaultEndpoint é o endpoint de criação de documentos do registry.
const DefaultEndpoint = "https://ismp.crpt.ru/api/v3/lk/documents/create"

const (
	tracerName = "github.com/Breadlyy/honestSign/dispatch"
	// limite do corpo de resposta que vai para o log de debug
	maxLoggedBody = 512
)

var (
	ErrInvalidLimit    = errors.New("limit must be > 0")
	ErrInvalidInterval = errors.New("interval must be > 0")
	ErrLimitMismatch   = errors.New("limit differs from the quota's limit")
)

// SchedulerFactory cria o scheduler de retentativas; fire é o ponto de
// reentrada do Dispatcher para cada retentativa vencida.
type SchedulerFactory func(fire func(domain.Submission)) domain.Scheduler

// NewDelayQueueScheduler é o SchedulerFactory padrão.
func NewDelayQueueScheduler(fire func(domain.Submission)) domain.Scheduler {
	return infra.NewDelayQueue(fire)
}

type Options struct {
	// Endpoint do registry; vazio usa DefaultEndpoint.
	Endpoint string
	Limit    int
	Interval time.Duration

	// Quota opcional; nil usa uma janela fixa em memória com Limit. Com Quota,
	// Limit pode ficar zero, mas se informado precisa bater com Quota.Limit().
	Quota      domain.Quota
	Scheduler  SchedulerFactory
	Serializer domain.Serializer
	Transport  domain.Transport
	Stats      domain.StatsStore
	Status     domain.StatusStore

	// MaxAttempts limita as tentativas de admissão; 0 nunca desiste.
	MaxAttempts int
	// MaxInFlight limita envios simultâneos ao registry; 0 não limita.
	MaxInFlight     int
	SendSlotTimeout time.Duration

	Tracer trace.Tracer
}

// Dispatcher admite submissões contra a quota, envia as admitidas e adia as
// negadas. É seguro para uso concorrente.
type Dispatcher struct {
	endpoint string
	interval time.Duration

	quota      domain.Quota
	admission  application.AdmissionService
	slots      application.SendSlots
	policy     application.RetryPolicy
	serializer domain.Serializer
	transport  domain.Transport
	stats      domain.StatsStore
	status     domain.StatusStore
	tracer     trace.Tracer

	resetter *infra.Resetter
	retries  domain.Scheduler

	shutdownOnce sync.Once
}

// New valida as opções, cria a quota e inicia o reset periódico (o primeiro
// acontece agora).
func New(opts Options) (*Dispatcher, error) {
	if opts.Quota != nil {
		if opts.Limit != 0 && opts.Limit != opts.Quota.Limit() {
			return nil, fmt.Errorf("dispatcher: %w (limit %d, quota %d)", ErrLimitMismatch, opts.Limit, opts.Quota.Limit())
		}
		opts.Limit = opts.Quota.Limit()
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("dispatcher: %w (got %d)", ErrInvalidLimit, opts.Limit)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("dispatcher: %w (got %s)", ErrInvalidInterval, opts.Interval)
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("dispatcher: max attempts must be >= 0 (got %d)", opts.MaxAttempts)
	}

	if strings.TrimSpace(opts.Endpoint) == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Quota == nil {
		opts.Quota = infra.NewWindowQuota(opts.Limit)
	}
	if opts.Serializer == nil {
		opts.Serializer = infra.JSONSerializer{}
	}
	if opts.Transport == nil {
		opts.Transport = infra.NewHTTPTransport()
	}
	if opts.Status == nil {
		opts.Status = infra.NewStatusCache(infra.DefaultStatusTTL, infra.DefaultStatusCleanup)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewDelayQueueScheduler
	}

	d := &Dispatcher{
		endpoint:   opts.Endpoint,
		interval:   opts.Interval,
		quota:      opts.Quota,
		admission:  application.AdmissionService{Quota: opts.Quota, RetryAfter: opts.Interval},
		policy:     application.RetryPolicy{MaxAttempts: opts.MaxAttempts},
		serializer: opts.Serializer,
		transport:  opts.Transport,
		stats:      opts.Stats,
		status:     opts.Status,
		tracer:     opts.Tracer,
	}
	if opts.MaxInFlight > 0 {
		d.slots = application.SendSlots{
			Pool:    infra.NewChanPool(opts.MaxInFlight),
			Timeout: opts.SendSlotTimeout,
		}
	}

	d.retries = opts.Scheduler(d.SubmitRequest)
	d.resetter = infra.NewResetter(opts.Quota, opts.Interval)
	d.resetter.Start(context.Background())

	log.Info(log.CatDispatch, "dispatcher started",
		"endpoint", d.endpoint, "limit", opts.Limit, "interval", opts.Interval,
		"maxAttempts", opts.MaxAttempts, "maxInFlight", opts.MaxInFlight)
	return d, nil
}

// Submit cria uma submissão para o par (documento, assinatura) e a processa no
// goroutine do chamador. Nunca falha: negações viram retentativas e falhas de
// envio ficam registradas no status.
func (d *Dispatcher) Submit(doc domain.Document, signature string) domain.SubmissionID {
	sub := d.accept(doc, signature)
	d.SubmitRequest(sub)
	return sub.ID
}

// SubmitAsync registra a submissão como pendente e a processa em outra goroutine.
func (d *Dispatcher) SubmitAsync(doc domain.Document, signature string) domain.SubmissionID {
	sub := d.accept(doc, signature)
	go d.SubmitRequest(sub)
	return sub.ID
}

func (d *Dispatcher) accept(doc domain.Document, signature string) domain.Submission {
	sub := domain.NewSubmission(doc, signature)
	d.putStatus(sub, domain.StatePending, "", 0, nil)
	return sub
}

// SubmitRequest faz uma tentativa de admissão para uma submissão existente.
// É o ponto de reentrada das retentativas.
func (d *Dispatcher) SubmitRequest(sub domain.Submission) {
	if sub.ID == "" {
		sub.ID = domain.NewSubmissionID()
	}
	sub.Attempt++
	ctx := context.Background()

	dec := d.admission.Decide(ctx)
	if !dec.Allowed {
		d.deferRetry(ctx, sub, dec.RetryAfter, domain.ErrQuotaExceeded)
		return
	}
	d.record(ctx, sub, domain.OutcomeAdmitted)

	release, err := d.slots.Reserve(ctx, sub.ID)
	if err != nil {
		d.deferRetry(ctx, sub, d.interval, err)
		return
	}
	defer release()

	d.send(ctx, sub)
}

func (d *Dispatcher) deferRetry(ctx context.Context, sub domain.Submission, delay time.Duration, reason error) {
	if domain.IsQuotaExceeded(reason) {
		log.Debug(log.CatDispatch, "quota exhausted, deferring", "id", sub.ID, "attempt", sub.Attempt, "retryAfter", delay)
	} else {
		log.Warn(log.CatDispatch, "deferring submission", "id", sub.ID, "attempt", sub.Attempt, "reason", reason)
	}

	if !d.policy.ShouldRetry(sub.Attempt) {
		log.Warn(log.CatRetry, "giving up on submission", "id", sub.ID, "attempts", sub.Attempt)
		d.record(ctx, sub, domain.OutcomeAbandoned)
		d.putStatus(sub, domain.StateAbandoned, "", 0, domain.ErrRetriesExhausted)
		return
	}

	// o status vai antes do Schedule: a retentativa pode disparar antes de voltarmos
	d.record(ctx, sub, domain.OutcomeDeferred)
	d.putStatus(sub, domain.StateDeferred, "", 0, reason)

	if !d.retries.Schedule(sub, delay) {
		log.Warn(log.CatRetry, "dispatcher is shut down, dropping submission", "id", sub.ID, "attempt", sub.Attempt)
		d.putStatus(sub, domain.StateAbandoned, "", 0, domain.ErrSchedulerClosed)
	}
}

func (d *Dispatcher) send(ctx context.Context, sub domain.Submission) {
	ctx, span := d.tracer.Start(ctx, "registry.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("submission.id", string(sub.ID)),
			attribute.Int("submission.attempt", sub.Attempt),
			attribute.String("document.id", sub.Document.DocID),
		),
	)
	defer span.End()

	body, err := d.serializer.Serialize(sub.Document, sub.Signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serialize")
		log.ErrorErr(log.CatDispatch, "serialize failed", err, "id", sub.ID)
		d.record(ctx, sub, domain.OutcomeFailed)
		d.putStatus(sub, domain.StateFailed, "", 0, err)
		return
	}
	cid := infra.PayloadCID(body)
	span.SetAttributes(attribute.String("payload.cid", cid))

	resp, err := d.transport.Send(ctx, d.endpoint, body)
	if resp.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}
	if len(resp.Body) > 0 {
		log.Debug(log.CatTransport, "registry response", "id", sub.ID, "status", resp.StatusCode, "body", truncate(resp.Body, maxLoggedBody))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		log.ErrorErr(log.CatTransport, "send failed", err, "id", sub.ID, "attempt", sub.Attempt, "cid", cid)
		d.record(ctx, sub, domain.OutcomeFailed)
		d.putStatus(sub, domain.StateFailed, cid, resp.StatusCode, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	log.Info(log.CatDispatch, "document delivered", "id", sub.ID, "attempt", sub.Attempt, "status", resp.StatusCode, "cid", cid)
	d.record(ctx, sub, domain.OutcomeDelivered)
	d.putStatus(sub, domain.StateDelivered, cid, resp.StatusCode, nil)
}

func (d *Dispatcher) record(ctx context.Context, sub domain.Submission, o domain.Outcome) {
	if d.stats == nil {
		return
	}
	err := d.stats.Record(ctx, domain.StatsEvent{
		SubmissionID: sub.ID,
		Outcome:      o,
		Attempt:      sub.Attempt,
		At:           time.Now(),
	})
	if err != nil {
		log.ErrorErr(log.CatStats, "stats record failed", err, "id", sub.ID, "outcome", o)
	}
}

func (d *Dispatcher) putStatus(sub domain.Submission, state domain.State, cid string, httpStatus int, err error) {
	st := domain.Status{
		ID:         sub.ID,
		State:      state,
		Attempts:   sub.Attempt,
		PayloadCID: cid,
		HTTPStatus: httpStatus,
		UpdatedAt:  time.Now(),
	}
	if err != nil {
		st.LastError = err.Error()
	}
	d.status.Put(context.Background(), st)
}

// Status retorna o último estado conhecido da submissão.
func (d *Dispatcher) Status(ctx context.Context, id domain.SubmissionID) (domain.Status, bool) {
	return d.status.Get(ctx, id)
}

// Snapshot é a visão operacional exposta em /stats.
type Snapshot struct {
	Limit          int              `json:"limit"`
	Interval       string           `json:"interval"`
	Windows        int64            `json:"windows"`
	LastReset      time.Time        `json:"last_reset"`
	PendingRetries int              `json:"pending_retries"`
	InFlight       int              `json:"in_flight"`
	Totals         map[string]int64 `json:"totals"`
}

func (d *Dispatcher) Snapshot(ctx context.Context) Snapshot {
	s := Snapshot{
		Limit:          d.quota.Limit(),
		Interval:       d.interval.String(),
		Windows:        d.resetter.Windows(),
		LastReset:      d.resetter.LastReset(),
		PendingRetries: d.retries.Pending(),
		InFlight:       d.slots.InFlight(),
		Totals:         make(map[string]int64, len(domain.Outcomes)),
	}
	for _, o := range domain.Outcomes {
		s.Totals[string(o)] = 0
	}
	if r, ok := d.stats.(domain.StatsReader); ok {
		totals, err := r.Totals(ctx)
		if err != nil {
			log.ErrorErr(log.CatStats, "stats totals failed", err)
		}
		for o, n := range totals {
			s.Totals[string(o)] = n
		}
	}
	return s
}

func (d *Dispatcher) Limit() int              { return d.quota.Limit() }
func (d *Dispatcher) Interval() time.Duration { return d.interval }

// Shutdown para o reset e cancela as retentativas pendentes, que nunca mais
// disparam. Envios já em andamento seguem até o fim. Retorna quantas
// retentativas foram descartadas; chamadas seguintes retornam 0.
func (d *Dispatcher) Shutdown() int {
	dropped := 0
	d.shutdownOnce.Do(func() {
		d.resetter.Stop()
		dropped = d.retries.CancelAll()
		log.Info(log.CatDispatch, "dispatcher stopped", "droppedRetries", dropped, "windows", d.resetter.Windows())
	})
	return dropped
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

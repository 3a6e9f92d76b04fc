package infra

import (
	"container/heap"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Breadlyy/honestSign/dispatch/domain"
	"github.com/Breadlyy/honestSign/internal/log"
)

// DelayQueue entrega itens à função fire depois de um atraso.
//
// Uma única goroutine é dona do heap e de um timer. Cada item vencido roda em
// uma goroutine nova, então retentativas sucessivas nunca aninham chamadas.
// Depois de CancelAll nenhum item pendente dispara; itens já entregues seguem
// seu curso.
type DelayQueue[T any] struct {
	fire func(T)

	mu     sync.Mutex
	items  delayHeap[T]
	seq    uint64
	closed bool

	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}

	fired atomic.Int64
}

var _ domain.Scheduler = (*DelayQueue[domain.Submission])(nil)

func NewDelayQueue[T any](fire func(T)) *DelayQueue[T] {
	q := &DelayQueue[T]{
		fire:   fire,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go q.loop()
	return q
}

// Schedule agenda v para daqui a delay. Nunca bloqueia; retorna false se a
// fila já foi cancelada.
func (q *DelayQueue[T]) Schedule(v T, delay time.Duration) bool {
	if delay < 0 {
		delay = 0
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.seq++
	heap.Push(&q.items, delayItem[T]{due: time.Now().Add(delay), seq: q.seq, value: v})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// CancelAll fecha a fila, descarta os pendentes e espera o loop sair.
// Retorna quantos itens foram descartados. Idempotente.
func (q *DelayQueue[T]) CancelAll() int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.exited
		return 0
	}
	q.closed = true
	dropped := len(q.items)
	q.items = nil
	close(q.done)
	q.mu.Unlock()

	<-q.exited
	return dropped
}

// Pending retorna quantos itens aguardam o vencimento.
func (q *DelayQueue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Fired retorna quantos itens já foram entregues à função fire.
func (q *DelayQueue[T]) Fired() int64 { return q.fired.Load() }

func (q *DelayQueue[T]) loop() {
	defer close(q.exited)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		due, wait, ok := q.popDue(time.Now())
		if !ok {
			return
		}
		for _, v := range due {
			q.fired.Add(1)
			go q.run(v)
		}

		if wait >= 0 {
			timer.Reset(wait)
		} else {
			timer.Stop()
		}

		select {
		case <-q.done:
			return
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// popDue remove os itens vencidos e calcula quanto esperar pelo próximo.
// wait < 0 significa heap vazio; ok=false significa fila fechada.
func (q *DelayQueue[T]) popDue(now time.Time) (due []T, wait time.Duration, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, 0, false
	}
	for len(q.items) > 0 && !q.items[0].due.After(now) {
		it := heap.Pop(&q.items).(delayItem[T])
		due = append(due, it.value)
	}
	wait = -1
	if len(q.items) > 0 {
		wait = q.items[0].due.Sub(now)
	}
	return due, wait, true
}

func (q *DelayQueue[T]) run(v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.CatRetry, "panic recovered in scheduled retry", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	q.fire(v)
}

type delayItem[T any] struct {
	due   time.Time
	seq   uint64
	value T
}

// delayHeap ordena por vencimento e, no empate, por ordem de agendamento.
type delayHeap[T any] []delayItem[T]

func (h delayHeap[T]) Len() int { return len(h) }

func (h delayHeap[T]) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h delayHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayHeap[T]) Push(x any) { *h = append(*h, x.(delayItem[T])) }

func (h *delayHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

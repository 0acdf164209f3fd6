package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

// dispatchFunc is satisfied by (*Dispatcher).Dispatch.
type dispatchFunc func(ctx context.Context, u telegram.Update)

// Runner feeds updates to a fixed pool of workers. Each chat maps to one
// worker, so updates of a chat run in arrival order while different chats
// run in parallel.
type Runner struct {
	dispatch dispatchFunc
	queues   []chan telegram.Update
	timeout  time.Duration
	log      zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewRunner builds a pool of workers, each with a queue of queueSize.
// timeout bounds the processing of one update.
func NewRunner(d *Dispatcher, workers, queueSize int, timeout time.Duration, log zerolog.Logger) *Runner {
	return newRunner(d.Dispatch, workers, queueSize, timeout, log)
}

func newRunner(fn dispatchFunc, workers, queueSize int, timeout time.Duration, log zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	r := &Runner{
		dispatch: fn,
		queues:   make([]chan telegram.Update, workers),
		timeout:  timeout,
		log:      log.With().Str("component", "runner").Logger(),
	}
	for i := range r.queues {
		r.queues[i] = make(chan telegram.Update, queueSize)
	}
	return r
}

// Start launches the workers. ctx carries values (not cancellation) into
// every dispatch; Stop is the way to end the pool.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	base := context.WithoutCancel(ctx)
	for i, q := range r.queues {
		r.wg.Add(1)
		go r.work(base, i, q)
	}
	r.log.Info().Int("workers", len(r.queues)).Msg("runner started")
}

func (r *Runner) work(base context.Context, id int, q <-chan telegram.Update) {
	defer r.wg.Done()
	for u := range q {
		ctx, cancel := context.WithTimeout(base, r.timeout)
		r.dispatch(ctx, u)
		cancel()
	}
	r.log.Debug().Int("worker", id).Msg("worker drained")
}

// Submit queues u without blocking. It returns false when the chat's queue
// is full or the runner is stopped.
func (r *Runner) Submit(u telegram.Update) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queues[r.shard(u.ChatID)] <- u:
		return true
	default:
		queueDropped.Inc()
		r.log.Warn().Int64("update_id", u.ID).Int64("chat_id", u.ChatID).Msg("queue full, update rejected")
		return false
	}
}

func (r *Runner) shard(chatID int64) int {
	return int(uint64(chatID) % uint64(len(r.queues)))
}

// Stop refuses new updates, lets the workers drain their queues and waits
// until they finish or ctx expires.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		for _, q := range r.queues {
			close(q)
		}
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"profitpulse-sync-core/internal/infrastructure/monitoring"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
)

type job struct {
	task    ports.Task
	attempt int
}

// Pool is an in-process task scheduler: a bounded queue feeding a fixed set
// of workers, with one retry policy applied uniformly to every task. A task
// that fails is re-enqueued after a fixed backoff until the attempt budget is
// spent; tasks themselves stay retry-free and idempotent.
type Pool struct {
	queue       chan job
	workers     int
	maxAttempts int
	backoff     time.Duration
	taskTimeout time.Duration
	logger      zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	stop   chan struct{}
	once   sync.Once
}

func NewPool(workers, maxAttempts int, backoff, taskTimeout time.Duration, logger zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Pool{
		queue:       make(chan job, 1024),
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		taskTimeout: taskTimeout,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// Start launches the worker goroutines. Workers drain until ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Shutdown stops the workers and waits for in-flight tasks to finish.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.stop)
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
	})
}

// Enqueue submits a task for asynchronous execution.
func (p *Pool) Enqueue(task ports.Task) {
	p.submit(job{task: task, attempt: 1})
}

// EnqueueIn submits a task after the given delay.
func (p *Pool) EnqueueIn(delay time.Duration, task ports.Task) {
	time.AfterFunc(delay, func() {
		p.submit(job{task: task, attempt: 1})
	})
}

// RunNow executes the task synchronously under the pool's retry policy. The
// backoff sleeps honor ctx so callers can abandon the wait.
func (p *Pool) RunNow(ctx context.Context, task ports.Task) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = p.execute(ctx, task)
		if lastErr == nil {
			return nil
		}
		if attempt == p.maxAttempts {
			break
		}
		monitoring.TaskRetries.WithLabelValues(task.Name()).Inc()
		p.logger.Warn().Err(lastErr).Str("task", task.Name()).Int("attempt", attempt).
			Msg("Task failed, retrying after backoff")
		select {
		case <-time.After(p.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("task %s failed after %d attempts: %w", task.Name(), p.maxAttempts, lastErr)
}

// Every runs the task on a fixed interval until ctx is canceled. The first
// run happens after one full interval, not at startup.
func (p *Pool) Every(ctx context.Context, interval time.Duration, task ports.Task) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Enqueue(task)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *Pool) submit(j job) {
	select {
	case p.queue <- j:
		return
	default:
	}
	// Dropping silently would lose work; block instead and let backpressure
	// reach the producer. Delayed resubmits can land after Shutdown, so the
	// wait also watches the stop channel or they would block forever.
	p.logger.Warn().Str("task", j.task.Name()).Msg("Task queue full, blocking producer")
	select {
	case p.queue <- j:
	case <-p.stop:
		p.logger.Warn().Str("task", j.task.Name()).Msg("Pool stopped, dropping task")
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.queue:
			p.run(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) run(ctx context.Context, j job) {
	err := p.execute(ctx, j.task)
	if err == nil {
		return
	}

	if j.attempt >= p.maxAttempts {
		p.logger.Error().Err(err).Str("task", j.task.Name()).Int("attempt", j.attempt).
			Msg("Task failed permanently")
		return
	}

	monitoring.TaskRetries.WithLabelValues(j.task.Name()).Inc()
	p.logger.Warn().Err(err).Str("task", j.task.Name()).Int("attempt", j.attempt).
		Msg("Task failed, scheduling retry")
	next := job{task: j.task, attempt: j.attempt + 1}
	time.AfterFunc(p.backoff, func() {
		p.submit(next)
	})
}

func (p *Pool) execute(ctx context.Context, task ports.Task) (err error) {
	runCtx, cancel := context.WithTimeout(ctx, p.taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name(), r)
		}
	}()

	start := time.Now()
	err = task.Run(runCtx)
	p.logger.Debug().Str("task", task.Name()).Dur("duration", time.Since(start)).
		Bool("ok", err == nil).Msg("Task finished")
	return err
}

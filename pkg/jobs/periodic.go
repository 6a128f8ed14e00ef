package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one run of a periodic job.
type Task func(context.Context) error

// PeriodicConfig configures a periodic job.
type PeriodicConfig struct {
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Periodic runs a task on a fixed interval and on demand. A failed run is
// retried up to MaxRetries times before waiting for the next tick.
type Periodic struct {
	name       string
	task       Task
	interval   time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPeriodic builds a periodic job.
func NewPeriodic(name string, task Task, cfg PeriodicConfig) *Periodic {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Periodic{
		name:       name,
		task:       task,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		trigger:    make(chan struct{}, 1),
	}
}

// Start runs the task once immediately and then on every tick. Safe to call once.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
	p.wg.Add(1)
	go p.loop(ctx)
	p.logger.Info("periodic job started", zap.String("job", p.name), zap.Duration("interval", p.interval))
}

// Stop cancels the loop and waits for a running task to return.
func (p *Periodic) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Info("periodic job stopped", zap.String("job", p.name))
}

// Trigger asks for an extra run. Requests made while one is pending coalesce.
func (p *Periodic) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Periodic) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		case <-p.trigger:
			p.run(ctx)
		}
	}
}

func (p *Periodic) run(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		err := p.task(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if attempt >= p.maxRetries {
			p.logger.Error("periodic job failed", zap.String("job", p.name), zap.Int("attempts", attempt+1), zap.Error(err))
			return
		}
		p.logger.Warn("periodic job failed, retrying", zap.String("job", p.name), zap.Int("attempt", attempt+1), zap.Error(err))

		timer := time.NewTimer(p.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

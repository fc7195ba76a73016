// Package worker provides background processing for intent statistics.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

const jobTimeout = 5 * time.Second

// Job is one intent hit waiting to be counted.
type Job struct {
	Intent domain.Intent
	At     time.Time
}

// Pool manages background workers for async jobs.
type Pool struct {
	repo   ports.IntentStatsRepository
	logger *zap.Logger
	jobs   chan Job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ ports.IntentRecorder = (*Pool)(nil)

// NewPool creates a worker pool with the given queue size.
func NewPool(repo ports.IntentStatsRepository, queueSize int, logger *zap.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{repo: repo, logger: logger, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to drain the queue after closing it.
// Jobs submitted after Stop are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("worker: pool stopped, dropping intent hit", zap.String("intent", string(job.Intent)))
		return
	}
	select {
	case p.jobs <- job:
	default:
		p.logger.Warn("worker: dropping intent hit", zap.String("intent", string(job.Intent)))
	}
}

// Record satisfies ports.IntentRecorder.
func (p *Pool) Record(intent domain.Intent, at time.Time) {
	p.Submit(Job{Intent: intent, At: at})
}

func (p *Pool) processJob(job Job) {
	if p.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := p.repo.RecordIntentHit(ctx, job.Intent, job.At); err != nil {
		p.logger.Warn("worker: failed to record intent hit", zap.String("intent", string(job.Intent)), zap.Error(err))
		return
	}
	p.logger.Debug("worker: recorded intent hit", zap.String("intent", string(job.Intent)))
}

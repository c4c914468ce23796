package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playzone/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReportEmail    = "jobs:report_email"
	QueueSummaryRebuild = "jobs:summary_rebuild"

	jobTypeReportEmail    = "report_email"
	jobTypeSummaryRebuild = "summary_rebuild"

	// DefaultMaxAttempts bounds retries before a job is parked in the DLQ.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the pause between BRPOP attempts while Redis is unreachable.
	DefaultRetryDelay = time.Second
)

// ErrPermanent marks a failure that retrying cannot fix, such as a malformed
// payload. Wrapped errors go straight to the DLQ.
var ErrPermanent = errors.New("permanent job failure")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReportEmail queues the closing report mail for one date.
func (d *Dispatcher) EnqueueReportEmail(ctx context.Context, payload ReportEmailPayload) error {
	return d.enqueue(ctx, QueueReportEmail, jobTypeReportEmail, payload)
}

// EnqueueSummaryRebuild queues a recomputation of one date (YYYY-MM-DD).
func (d *Dispatcher) EnqueueSummaryRebuild(ctx context.Context, day string) error {
	return d.enqueue(ctx, QueueSummaryRebuild, jobTypeSummaryRebuild, RebuildPayload{Date: day})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb         *redis.Client
	handlers    map[string]Handler
	queues      []string
	maxAttempts int
	retryDelay  time.Duration
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{
		rdb:         rdb,
		handlers:    make(map[string]Handler),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
}

// Handle registers the handler of a queue. Call before Start.
func (p *Pool) Handle(queue string, h Handler) {
	if _, ok := p.handlers[queue]; !ok {
		p.queues = append(p.queues, queue)
	}
	p.handlers[queue] = h
}

// Start launches numWorkers goroutines consuming every registered queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	down := false
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		}

		// Blocking pop; waits up to 5s then loops to check ctx
		result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			if !down {
				log.Error().Err(err).Int("worker", id).Msg("worker: redis unavailable, backing off")
				down = true
			}
			select {
			case <-ctx.Done():
			case <-time.After(p.retryDelay):
			}
			continue
		}
		if down {
			log.Info().Int("worker", id).Msg("worker: redis reachable again")
			down = false
		}
		if len(result) < 2 {
			continue
		}
		p.process(ctx, result[0], result[1])
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(raw), "malformed envelope", 0)
		metrics.IncJob(queue, "dlq")
		return
	}

	h, ok := p.handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler registered")
		return
	}

	err := safeRun(ctx, h, job.Payload)
	if err == nil {
		metrics.IncJob(queue, metrics.ResultSuccess)
		return
	}

	job.Attempts++
	logger := log.With().Str("queue", queue).Str("type", job.Type).Int("attempts", job.Attempts).Logger()
	if job.Attempts >= p.maxAttempts || errors.Is(err, ErrPermanent) {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		metrics.IncJob(queue, "dlq")
		return
	}

	logger.Warn().Err(err).Msg("job failed, requeueing")
	metrics.IncJob(queue, "retry")
	if pushErr := push(ctx, p.rdb, queue, job); pushErr != nil {
		logger.Error().Err(pushErr).Msg("requeue failed, job lost")
	}
}

func safeRun(ctx context.Context, h Handler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

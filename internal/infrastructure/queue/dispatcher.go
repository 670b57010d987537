package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/api/metrics"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	shardCapacity  = 256
)

var (
	ErrQueueFull  = errors.New("profile queue full")
	ErrNotRunning = errors.New("profile queue not running")
)

// ProfileMaterializer is the work each job performs.
type ProfileMaterializer interface {
	Materialize(ctx context.Context, job ports.ProfileJob) error
}

// Dispatcher fans profile jobs out to a fixed set of workers. Jobs are
// sharded by subject id so the jobs of one account run in order.
type Dispatcher struct {
	shards  []chan ports.ProfileJob
	work    ProfileMaterializer
	log     zerolog.Logger
	running atomic.Bool
	wg      sync.WaitGroup
}

var _ ports.ProfileJobQueue = (*Dispatcher)(nil)

func NewDispatcher(workers int, work ProfileMaterializer, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	d := &Dispatcher{
		shards: make([]chan ports.ProfileJob, workers),
		work:   work,
		log:    log,
	}
	for i := range d.shards {
		d.shards[i] = make(chan ports.ProfileJob, shardCapacity)
	}
	return d
}

// Start runs one goroutine per shard until ctx is done. Jobs still buffered
// at that point are abandoned; the affected users keep their signup metadata.
func (d *Dispatcher) Start(ctx context.Context) {
	d.running.Store(true)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		<-ctx.Done()
		d.running.Store(false)
	}()
	for i, ch := range d.shards {
		d.wg.Add(1)
		go d.drain(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands job to its shard without blocking.
func (d *Dispatcher) Enqueue(job ports.ProfileJob) error {
	if !d.running.Load() {
		return ErrNotRunning
	}
	idx := d.shardIndex(job.Subject)
	select {
	case d.shards[idx] <- job:
		metrics.ProfileQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.shards[idx])))
		return nil
	default:
		metrics.ProfileMaterializationsTotal.WithLabelValues("dropped").Inc()
		return fmt.Errorf("%w: shard %d", ErrQueueFull, idx)
	}
}

func (d *Dispatcher) shardIndex(subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32() % uint32(len(d.shards)))
}

func (d *Dispatcher) drain(ctx context.Context, shard int, ch <-chan ports.ProfileJob) {
	defer d.wg.Done()
	depth := metrics.ProfileQueueDepth.WithLabelValues(strconv.Itoa(shard))
	log := d.log.With().Int("shard", shard).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-ch:
			depth.Set(float64(len(ch)))
			start := time.Now()
			err := d.work.Materialize(ctx, job)
			metrics.ProfileJobDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				log.Error().Err(err).Str("user_id", job.Subject).Msg("profile materialization failed")
			}
		}
	}
}

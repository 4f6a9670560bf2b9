package password

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	queueBuffer    = 64
)

// Pool runs bcrypt operations on a fixed set of workers so that a burst of
// logins cannot monopolise every scheduler thread. Requests queue up to
// queueBuffer deep; beyond that, callers block until a worker frees up or
// their context is cancelled.
type Pool struct {
	hasher  *Hasher
	jobs    chan func()
	log     zerolog.Logger
	workers int
}

// NewPool creates a Pool with numWorkers workers. If numWorkers <= 0,
// defaultWorkers is used.
func NewPool(hasher *Hasher, numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Pool{
		hasher:  hasher,
		jobs:    make(chan func(), queueBuffer),
		log:     log,
		workers: numWorkers,
	}
}

// Start launches the worker goroutines. Workers stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
}

// Hash computes a digest on a pool worker.
func (p *Pool) Hash(ctx context.Context, plaintext string) (string, error) {
	type result struct {
		digest string
		err    error
	}
	out := make(chan result, 1)
	if err := p.submit(ctx, func() {
		d, err := p.hasher.Hash(plaintext)
		out <- result{digest: d, err: err}
	}); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-out:
		return r.digest, r.err
	}
}

// Verify compares plaintext against digest on a pool worker.
func (p *Pool) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	type result struct {
		ok  bool
		err error
	}
	out := make(chan result, 1)
	if err := p.submit(ctx, func() {
		ok, err := p.hasher.Verify(plaintext, digest)
		out <- result{ok: ok, err: err}
	}); err != nil {
		return false, err
	}
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-out:
		return r.ok, r.err
	}
}

func (p *Pool) submit(ctx context.Context, job func()) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	p.log.Debug().Int("worker_id", id).Msg("password worker started")
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			job()
		}
	}
}

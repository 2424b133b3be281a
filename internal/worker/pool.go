// Package worker crawls batches of identifiers with a pool of goroutines.
//
// Each worker runs its own resolution against the shared graph store and
// persists the result through the gateway's merge-on-match writes, which are
// the only coordination between workers. A failing identifier is recorded in
// the failure ledger and never aborts the batch.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// DefaultConcurrency is the number of workers when Options leaves it unset.
const DefaultConcurrency = 4

// Options configures a Pool.
type Options struct {
	Concurrency int

	// CrawlVersion is the target used to skip seeds already stored FULL.
	CrawlVersion string

	// Force resolves seeds even when the store holds them up to date.
	Force bool

	// Follow enqueues the compile and runtime dependency targets of every
	// processed seed, turning the batch into a transitive crawl.
	Follow bool

	// MaxNodes caps how many identifiers one run processes (0: unlimited).
	MaxNodes int

	// Ledger receives one entry per failed identifier. Optional.
	Ledger *Ledger

	Logger *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Outcome is what happened to one identifier.
type Outcome string

const (
	Resolved Outcome = "resolved"
	Skipped  Outcome = "skipped"
	Failed   Outcome = "failed"
)

// Summary reports one run.
type Summary struct {
	RunID    string        `json:"runId"`
	Resolved int           `json:"resolved"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Stored   int           `json:"stored"`
	Missing  int           `json:"missingVersions"`
	Dangling int           `json:"dangling"`
	Failures []Failure     `json:"failures,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Total returns the number of identifiers processed.
func (s *Summary) Total() int { return s.Resolved + s.Skipped + s.Failed }

// Pool runs resolutions concurrently. A Pool may be reused; runs are
// independent.
type Pool struct {
	resolver *resolve.Resolver
	gateway  *store.Gateway
	opts     Options
}

// New creates a pool resolving with r and persisting through gw.
func New(r *resolve.Resolver, gw *store.Gateway, opts Options) *Pool {
	return &Pool{resolver: r, gateway: gw, opts: opts.WithDefaults()}
}

// Run processes ids and everything Follow discovers. It returns when every
// identifier is processed or ctx is done; the summary is valid either way.
func (p *Pool) Run(ctx context.Context, ids []resolve.Identifier) (*Summary, error) {
	n := p.opts.Concurrency
	c := &crawl{
		Pool:    p,
		ctx:     ctx,
		log:     p.opts.Logger,
		summary: &Summary{RunID: uuid.NewString()},
		jobs:    make(chan resolve.Identifier, n*2),
		results: make(chan result, n*2),
		done:    make(chan struct{}),
		visited: make(map[string]bool),
	}
	c.log = c.log.With("run", c.summary.RunID)
	return c.run(ids)
}

type result struct {
	id      resolve.Identifier
	outcome Outcome
	res     *resolve.Result
	stored  int
	next    []artifact.Dependency
	err     error
}

type crawl struct {
	*Pool
	ctx     context.Context
	log     *log.Logger
	summary *Summary

	jobs    chan resolve.Identifier
	results chan result
	done    chan struct{}
	wg      sync.WaitGroup

	// visited and pending are only touched by the collecting goroutine.
	visited map[string]bool
	pending int
}

func (c *crawl) run(ids []resolve.Identifier) (*Summary, error) {
	start := time.Now()
	for range c.opts.Concurrency {
		c.wg.Add(1)
		go c.worker()
	}

	for _, id := range ids {
		c.enqueue(id)
	}
	var err error
	if c.pending > 0 {
		err = c.collect()
	}

	close(c.done)
	c.wg.Wait()

	c.summary.Duration = time.Since(start)
	c.log.Info("crawl finished",
		"resolved", c.summary.Resolved,
		"skipped", c.summary.Skipped,
		"failed", c.summary.Failed,
		"duration", c.summary.Duration.Round(time.Millisecond))
	return c.summary, err
}

func (c *crawl) worker() {
	defer c.wg.Done()
	for {
		select {
		case id := <-c.jobs:
			r := c.process(id)
			select {
			case c.results <- r:
			case <-c.done:
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue schedules id unless it was seen or the node budget is spent.
func (c *crawl) enqueue(id resolve.Identifier) bool {
	key := id.Coordinate.Key()
	if c.visited[key] {
		return false
	}
	if c.opts.MaxNodes > 0 && len(c.visited) >= c.opts.MaxNodes {
		return false
	}
	c.visited[key] = true
	c.pending++

	go func() {
		select {
		case c.jobs <- id:
		case <-c.done:
		}
	}()
	return true
}

func (c *crawl) collect() error {
	for {
		select {
		case r := <-c.results:
			c.handle(r)
			c.pending--
			if c.pending == 0 {
				return nil
			}
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

func (c *crawl) handle(r result) {
	s := c.summary
	switch r.outcome {
	case Failed:
		s.Failed++
		f := newFailure(s.RunID, r.id, r.err)
		s.Failures = append(s.Failures, f)
		c.log.Warn("resolve failed", "id", r.id.Coordinate.String(), "code", f.Code, "err", r.err)
		if c.opts.Ledger != nil {
			if err := c.opts.Ledger.Record(f); err != nil {
				c.log.Error("failure ledger write failed", "err", err)
			}
		}
		return
	case Skipped:
		s.Skipped++
		c.log.Debug("up to date", "id", r.id.Coordinate.String())
	case Resolved:
		s.Resolved++
		s.Stored += r.stored
		s.Missing += len(r.res.Missing)
		s.Dangling += len(r.res.Dangling)
		c.log.Debug("resolved", "id", r.id.Coordinate.String(), "nodes", len(r.res.Nodes))
	}

	for _, d := range r.next {
		c.enqueue(resolve.Identifier{Coordinate: d.Target, RepoURL: r.id.RepoURL})
	}
}

// process runs on a worker goroutine.
func (c *crawl) process(id resolve.Identifier) result {
	r := result{id: id}
	seed := id.Coordinate.Normalize()

	if !c.opts.Force {
		ok, err := c.gateway.ContainsUpToDate(c.ctx, seed, c.opts.CrawlVersion)
		if err != nil {
			r.outcome, r.err = Failed, err
			return r
		}
		if ok {
			r.outcome = Skipped
			if c.opts.Follow {
				deps, err := c.gateway.GetDependencies(c.ctx, seed)
				if err != nil {
					c.log.Warn("load stored dependencies failed", "id", seed.String(), "err", err)
				}
				r.next = followed(deps)
			}
			return r
		}
	}

	res, err := c.resolver.Resolve(c.ctx, id)
	if err != nil {
		r.outcome, r.err = Failed, err
		return r
	}
	for _, n := range res.Nodes {
		if err := c.gateway.SaveOrMerge(c.ctx, n); err != nil {
			r.outcome, r.err = Failed, err
			return r
		}
		r.stored++
	}
	r.outcome, r.res = Resolved, res

	if c.opts.Follow && len(res.Nodes) > 0 {
		deps, err := res.Nodes[0].LoadDependencies(c.ctx)
		if err != nil {
			c.log.Warn("load dependencies failed", "id", seed.String(), "err", err)
		}
		r.next = followed(deps)
	}
	return r
}

// followed keeps the edges a transitive crawl walks: compile and runtime
// scope with a concrete version.
func followed(deps []artifact.Dependency) []artifact.Dependency {
	var out []artifact.Dependency
	for _, d := range deps {
		if d.Scope != artifact.ScopeCompile && d.Scope != artifact.ScopeRuntime {
			continue
		}
		if d.MissingVersion() || artifact.HasPlaceholder(d.Target.Version) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func newFailure(runID string, id resolve.Identifier, err error) Failure {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return Failure{
		RunID:      runID,
		Identifier: id,
		Code:       code,
		Message:    err.Error(),
		Time:       time.Now().UTC(),
	}
}

package backup

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

// Lister enumerates a member's files page by page
type Lister interface {
	ListRoot(ctx context.Context, memberID string) (types.FolderListPage, error)
	ListContinue(ctx context.Context, memberID, cursor string) (types.FolderListPage, error)
}

// Fetcher streams one file's content, acting as the owning member
type Fetcher interface {
	FetchTo(ctx context.Context, memberID, entryID string, w io.Writer) (int64, error)
}

// State describes where the pipeline is in its lifecycle
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Progress is reported once per finished download attempt
type Progress struct {
	Item  WorkItem
	Bytes int64
	Err   error
}

// Options configures a pipeline run
type Options struct {
	OutputRoot string
	Filter     FilterConfig
	Workers    int
	QueueSize  int
	// Sanitize maps a remote display path to a filesystem-safe relative
	// path. Defaults to utils.SanitizePath.
	Sanitize func(string) string
	// OnProgress, when set, is called from consumer goroutines after every
	// download attempt. It must be safe for concurrent use.
	OnProgress func(Progress)
}

// Summary is the outcome of one pipeline run
type Summary struct {
	Members      int
	Consumers    int
	Enumerated   int64
	Filtered     int64
	Downloaded   int64
	Failed       int64
	BytesWritten int64
	ListErrors   int64
	Elapsed      time.Duration
}

// Pipeline connects per-member enumeration producers to a fixed pool of
// download consumers through a deduplicating bounded queue. Shutdown is
// two-phase: once every producer has finished, exactly one sentinel per
// consumer is enqueued, and the run ends when every consumer has taken
// its sentinel and exited.
type Pipeline struct {
	lister  Lister
	fetcher Fetcher
	opts    Options
	logger  logging.Logger

	queue *SetQueue
	state atomic.Int32

	enumerated   atomic.Int64
	filtered     atomic.Int64
	downloaded   atomic.Int64
	failed       atomic.Int64
	bytesWritten atomic.Int64
	listErrors   atomic.Int64
}

// NewPipeline creates a pipeline. Zero Workers and QueueSize fall back
// to the package defaults.
func NewPipeline(lister Lister, fetcher Fetcher, opts Options, logger logging.Logger) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = utils.DefaultDownloadWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = utils.DefaultQueueSize
	}
	if opts.Sanitize == nil {
		opts.Sanitize = utils.SanitizePath
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Pipeline{
		lister:  lister,
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		queue:   NewSetQueue(opts.QueueSize),
	}
}

// State returns the pipeline's current lifecycle state
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run executes one full backup over the given members and blocks until
// every consumer has exited. A member whose enumeration fails is logged
// and skipped; the run itself only fails on a nil lister or fetcher.
func (p *Pipeline) Run(ctx context.Context, members []types.Member) Summary {
	start := time.Now()
	p.state.Store(int32(StateRunning))

	p.logger.Info("backup starting",
		logging.F("members", len(members)),
		logging.F("workers", p.opts.Workers),
		logging.F("queueSize", p.opts.QueueSize),
	)

	var consumers sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		consumers.Add(1)
		go func(id int) {
			defer consumers.Done()
			p.consume(ctx, id)
		}(i)
	}

	var producers sync.WaitGroup
	for _, member := range members {
		producers.Add(1)
		go func(m types.Member) {
			defer producers.Done()
			p.enumerate(ctx, m)
		}(member)
	}

	// Phase one: no more work will ever arrive.
	producers.Wait()
	p.state.Store(int32(StateDraining))
	p.logger.Info("enumeration finished, draining queue",
		logging.F("pending", p.queue.Len()),
	)

	// Phase two: one sentinel per consumer. Dedup never swallows these,
	// so each consumer gets exactly one stop signal.
	for i := 0; i < p.opts.Workers; i++ {
		p.queue.PutSentinel()
	}
	consumers.Wait()
	p.state.Store(int32(StateStopped))

	summary := Summary{
		Members:      len(members),
		Consumers:    p.opts.Workers,
		Enumerated:   p.enumerated.Load(),
		Filtered:     p.filtered.Load(),
		Downloaded:   p.downloaded.Load(),
		Failed:       p.failed.Load(),
		BytesWritten: p.bytesWritten.Load(),
		ListErrors:   p.listErrors.Load(),
		Elapsed:      time.Since(start),
	}
	p.logger.Info("backup finished",
		logging.F("downloaded", summary.Downloaded),
		logging.F("failed", summary.Failed),
		logging.F("bytes", summary.BytesWritten),
		logging.F("elapsed", summary.Elapsed.String()),
	)
	return summary
}

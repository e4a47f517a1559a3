package document

import (
	"context"
	"sync"
	"time"

	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/ragclient"
)

type StatusLister interface {
	ListStatus(ctx context.Context) (*ragclient.StatusResponse, error)
}

// StatusUpdate is emitted once per watch, when the document reaches ready or failed.
type StatusUpdate struct {
	DocID    string
	Status   Status
	Chunks   int
	Filename string
}

type Sink func(StatusUpdate)

type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type PollerConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
	Clock        Clock
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		InitialDelay: 5 * time.Second,
		Interval:     10 * time.Second,
		MaxAttempts:  30,
	}
}

// Poller re-checks the status listing for freshly uploaded documents. Each
// watched id runs its own sequence; sequences share nothing but the sink.
type Poller struct {
	lister StatusLister
	sink   Sink
	cfg    PollerConfig
	logger logger.ILogger

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

func NewPoller(lister StatusLister, cfg PollerConfig, sink Sink, log logger.ILogger) *Poller {
	defaults := DefaultPollerConfig()
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	return &Poller{
		lister: lister,
		sink:   sink,
		cfg:    cfg,
		logger: log,
		active: make(map[string]struct{}),
	}
}

// Watch starts polling docID in the background. It returns false if docID is
// already being watched. The sequence ends on a terminal status, when the
// attempt budget runs out, or when ctx is done.
func (p *Poller) Watch(ctx context.Context, docID string) bool {
	p.mu.Lock()
	if _, ok := p.active[docID]; ok {
		p.mu.Unlock()
		return false
	}
	p.active[docID] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer p.release(docID)
		p.run(ctx, docID)
	}()
	return true
}

// Active returns the ids currently being watched.
func (p *Poller) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every running watch has finished.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) release(docID string) {
	p.mu.Lock()
	delete(p.active, docID)
	p.mu.Unlock()
}

func (p *Poller) run(ctx context.Context, docID string) {
	wait := p.cfg.InitialDelay
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-p.cfg.Clock.After(wait):
		}
		wait = p.cfg.Interval

		listing, err := p.lister.ListStatus(ctx)
		if err != nil {
			p.logger.Warn("Poller", "Status check failed", map[string]interface{}{
				"doc_id":  docID,
				"attempt": attempt,
				"error":   err.Error(),
			})
			continue
		}

		entry, ok := listing.Find(docID)
		if !ok {
			continue
		}
		status := ParseStatus(entry.Status)
		if status == StatusProcessing {
			continue
		}

		p.logger.Info("Poller", "Document left processing", map[string]interface{}{
			"doc_id":  docID,
			"status":  string(status),
			"attempt": attempt,
		})
		p.sink(StatusUpdate{
			DocID:    docID,
			Status:   status,
			Chunks:   entry.Chunks,
			Filename: entry.Filename,
		})
		return
	}

	p.logger.Debug("Poller", "Attempt budget exhausted, leaving status as is", map[string]interface{}{
		"doc_id":   docID,
		"attempts": p.cfg.MaxAttempts,
	})
}

package workspace

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/conversation"
	"pdf-chat-client/pkg/document"
	"pdf-chat-client/pkg/ragclient"
)

// RemoteService is the document service as the workspace uses it.
type RemoteService interface {
	document.StatusLister
	Upload(ctx context.Context, filename string, content io.Reader) (*ragclient.UploadResponse, error)
	DeleteOne(ctx context.Context, docID string) (*ragclient.DeleteResponse, error)
	Ask(ctx context.Context, question, scopeKey string) (*ragclient.AskResponse, error)
	Download(ctx context.Context, docID string, w io.Writer) (int64, error)
}

type Config struct {
	Poller      document.PollerConfig
	DownloadDir string
	// Simulated upload progress: ProgressStep percent every ProgressTick, capped at ProgressCap.
	ProgressTick time.Duration
	ProgressStep int
	ProgressCap  int
	// DeleteConcurrency bounds parallel requests in DeleteAll.
	DeleteConcurrency int
}

func DefaultConfig() Config {
	return Config{
		Poller:            document.DefaultPollerConfig(),
		DownloadDir:       ".",
		ProgressTick:      300 * time.Millisecond,
		ProgressStep:      15,
		ProgressCap:       90,
		DeleteConcurrency: 4,
	}
}

// Workspace owns the document collection and the conversation reconciler.
// Every state transition runs on a single loop goroutine, one at a time.
// Remote calls run on the caller's goroutine between transitions, so a slow
// answer never holds up a scope switch or a poll result.
type Workspace struct {
	remote     RemoteService
	store      *conversation.Store
	reconciler *conversation.Reconciler
	docs       *document.Collection
	poller     *document.Poller
	notifier   Notifier
	logger     logger.ILogger
	cfg        Config
	now        func() time.Time

	ops     chan func()
	stopped chan struct{}
	started atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	// loop-owned state
	pendingAsks int
	loading     bool
	// promotions counts confirmed uploads; promotedAt maps a confirmed id to
	// its count until a listing includes it.
	promotions uint64
	promotedAt map[string]uint64
}

func New(remote RemoteService, store *conversation.Store, notifier Notifier, cfg Config, log logger.ILogger) *Workspace {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	defaults := DefaultConfig()
	if cfg.ProgressTick <= 0 {
		cfg.ProgressTick = defaults.ProgressTick
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = defaults.ProgressStep
	}
	if cfg.ProgressCap <= 0 || cfg.ProgressCap > 100 {
		cfg.ProgressCap = defaults.ProgressCap
	}
	if cfg.DeleteConcurrency <= 0 {
		cfg.DeleteConcurrency = defaults.DeleteConcurrency
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = defaults.DownloadDir
	}

	w := &Workspace{
		remote:     remote,
		store:      store,
		docs:       document.NewCollection(),
		notifier:   notifier,
		logger:     log,
		cfg:        cfg,
		now:        time.Now,
		ops:        make(chan func()),
		stopped:    make(chan struct{}),
		promotedAt: map[string]uint64{},
	}
	w.reconciler = conversation.NewReconciler(store, w.displayName, log)
	w.poller = document.NewPoller(remote, cfg.Poller, w.onStatusUpdate, log)
	return w
}

// Start runs the loop, loads the "all documents" transcript and fetches the
// document list. A failed listing is notified, not returned.
func (w *Workspace) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return nil
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.run()

	if err := w.do(w.reconciler.Initialize); err != nil {
		return err
	}
	w.logger.Info("Workspace", "Workspace started", map[string]interface{}{
		"active_scope": conversation.AllDocuments,
	})

	if err := w.LoadDocuments(ctx); err != nil && !isRemote(err) {
		return err
	}
	return nil
}

// Close stops the loop and every running poll, and waits for them to exit.
func (w *Workspace) Close() {
	if !w.started.Load() {
		return
	}
	w.cancel()
	<-w.stopped
	w.poller.Wait()
}

func (w *Workspace) run() {
	defer close(w.stopped)
	for {
		select {
		case fn := <-w.ops:
			fn()
		case <-w.ctx.Done():
			return
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (w *Workspace) do(fn func()) error {
	if !w.started.Load() {
		return ErrNotStarted
	}
	done := make(chan struct{})
	select {
	case w.ops <- func() { defer close(done); fn() }:
	case <-w.stopped:
		return ErrClosed
	}
	<-done
	return nil
}

// post hands fn to the loop without waiting for it to run. Used by background
// completions; dropped once the loop has stopped.
func (w *Workspace) post(fn func()) {
	select {
	case w.ops <- fn:
	case <-w.stopped:
	}
}

func (w *Workspace) notify(level Level, event, title, description, docID string) {
	w.notifier.Notify(Notification{
		Level:       level,
		Title:       title,
		Description: description,
		Event:       event,
		DocumentID:  docID,
		At:          w.now(),
	})
}

// displayName must only be called on the loop.
func (w *Workspace) displayName(scopeKey string) string {
	if scopeKey == conversation.AllDocuments {
		return conversation.AllDocumentsName
	}
	if d, ok := w.docs.Find(scopeKey); ok {
		return d.Name
	}
	return ""
}

type Snapshot struct {
	Documents   []document.Document
	Total       int
	Ready       []document.Document
	ActiveScope string
	Transcript  []conversation.ChatMessage
	Typing      bool
	Loading     bool
}

// Snapshot returns the derived document view for q together with the chat state.
func (w *Workspace) Snapshot(q document.Query) (Snapshot, error) {
	var snap Snapshot
	err := w.do(func() {
		items := w.docs.Items()
		snap = Snapshot{
			Documents:   document.View(items, q),
			Total:       len(items),
			Ready:       document.Ready(items),
			ActiveScope: w.reconciler.Active(),
			Transcript:  w.reconciler.Transcript(),
			Typing:      w.pendingAsks > 0,
			Loading:     w.loading,
		}
	})
	return snap, err
}

// Document returns the entry for id.
func (w *Workspace) Document(id string) (document.Document, error) {
	var (
		doc document.Document
		ok  bool
	)
	if err := w.do(func() { doc, ok = w.docs.Find(id) }); err != nil {
		return document.Document{}, err
	}
	if !ok {
		return document.Document{}, ErrUnknownDocument
	}
	return doc, nil
}

// HistoryStats describes what the conversation store holds.
func (w *Workspace) HistoryStats() conversation.StorageStats {
	return w.store.Stats()
}

// PollingDocuments lists the document ids whose status is still being checked.
func (w *Workspace) PollingDocuments() []string {
	return w.poller.Active()
}

// WaitPolls blocks until every status poll has ended.
func (w *Workspace) WaitPolls() {
	w.poller.Wait()
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

// ErrAutosaverStopped is returned by Touch after Stop
var ErrAutosaverStopped = errors.New("autosaver is stopped")

// Timer is the subset of *time.Timer the autosaver needs
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d
type AfterFunc func(d time.Duration, f func()) Timer

// DraftSaver persists a draft
type DraftSaver interface {
	SaveDraft(ctx context.Context, in DraftInput) (*entity.Post, error)
}

type pendingSave struct {
	input DraftInput
	timer Timer
	seq   uint64
}

// Autosaver debounces draft saves per post: every Touch restarts the quiet period,
// and only the latest content is saved once the period elapses without edits.
type Autosaver struct {
	saver       DraftSaver
	quiet       time.Duration
	afterFunc   AfterFunc
	saveTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingSave
	seq     uint64
	stopped bool
	wg      sync.WaitGroup
}

// AutosaverOption configures the Autosaver
type AutosaverOption func(*Autosaver)

// WithAfterFunc replaces the timer factory
func WithAfterFunc(fn AfterFunc) AutosaverOption {
	return func(a *Autosaver) {
		a.afterFunc = fn
	}
}

// WithSaveTimeout bounds each debounced save
func WithSaveTimeout(d time.Duration) AutosaverOption {
	return func(a *Autosaver) {
		a.saveTimeout = d
	}
}

// NewAutosaver creates a debouncing autosaver
func NewAutosaver(saver DraftSaver, quiet time.Duration, logger *slog.Logger, opts ...AutosaverOption) *Autosaver {
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	a := &Autosaver{
		saver: saver,
		quiet: quiet,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		saveTimeout: 10 * time.Second,
		logger:      logger.With("component", "autosaver"),
		pending:     make(map[string]*pendingSave),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Touch records an edit and restarts the post's quiet period
func (a *Autosaver) Touch(in DraftInput) error {
	if in.ID == "" {
		return entity.ErrMissingIdempotencyKey
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrAutosaverStopped
	}

	if p, ok := a.pending[in.ID]; ok {
		p.timer.Stop()
	}

	a.seq++
	seq := a.seq
	id := in.ID
	a.pending[id] = &pendingSave{
		input: in,
		seq:   seq,
		timer: a.afterFunc(a.quiet, func() { a.fire(id, seq) }),
	}

	return nil
}

// Flush saves the user's pending edit of a post right away and cancels its timer.
// Returns nil, nil when nothing is pending for that user.
func (a *Autosaver) Flush(ctx context.Context, userID, id string) (*entity.Post, error) {
	p := a.take(id, userID, 0)
	if p == nil {
		return nil, nil
	}
	return a.saver.SaveDraft(ctx, p.input)
}

// Cancel drops the pending edit of a post without saving it
func (a *Autosaver) Cancel(id string) {
	a.take(id, "", 0)
}

// Pending reports whether a save of the user's edit is waiting for the post
func (a *Autosaver) Pending(userID, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[id]
	return ok && p.input.UserID == userID
}

// Stop cancels every pending timer and waits for saves already running
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	for id, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, id)
	}
	a.mu.Unlock()

	a.wg.Wait()
}

// take removes the pending entry; an empty owner matches any user and seq 0 any generation
func (a *Autosaver) take(id, owner string, seq uint64) *pendingSave {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.pending[id]
	if !ok || (owner != "" && p.input.UserID != owner) || (seq != 0 && p.seq != seq) {
		return nil
	}
	p.timer.Stop()
	delete(a.pending, id)
	return p
}

func (a *Autosaver) fire(id string, seq uint64) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	p := a.take(id, "", seq)
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()

	if _, err := a.saver.SaveDraft(ctx, p.input); err != nil {
		level := slog.LevelError
		if errors.Is(err, entity.ErrEmptyContent) || errors.Is(err, entity.ErrPostNotEditable) {
			level = slog.LevelWarn
		}
		a.logger.Log(ctx, level, "autosave failed", "post_id", id, "error", err)
		return
	}

	a.logger.Debug("draft autosaved", "post_id", id)
}

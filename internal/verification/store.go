package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Remote is the verification service.
type Remote interface {
	Fetch(ctx context.Context, slug string) (*Record, error)
	Create(ctx context.Context, slug string) (*Record, error)
	Update(ctx context.Context, verificationID string, step StepName, input UpdateInput) (*Record, error)
	RequestSocialAuthorization(ctx context.Context, platform, verificationID string) (string, error)
}

// Reporter receives errors worth investigating. Implementations must not block.
type Reporter interface {
	ReportError(err error, tags map[string]string)
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier shows a message to the user. Implementations must not block.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Opener opens url in a new browsing context.
type Opener interface {
	Open(url string) error
}

// Options wires a Store to its collaborators.
type Options struct {
	Remote   Remote
	Reporter Reporter
	Notifier Notifier
	Opener   Opener
	Logger   *zap.Logger
	// CallTimeout bounds every remote call; a call that outlives it fails
	// and its late result is dropped.
	CallTimeout time.Duration
}

const defaultCallTimeout = 30 * time.Second

// Store holds the verification record and the active step for one session.
// A session is identified by the project slug; every Load starts a new
// generation and results from older generations are discarded.
type Store struct {
	opts  Options
	ready bool

	mu         sync.Mutex
	slug       string
	generation uint64
	record     *Record
	step       int
	resolved   bool
	loadErr    error
	active     *Controller
}

// Snapshot is a copy of the store state.
type Snapshot struct {
	Slug     string
	Record   *Record
	Step     int
	Resolved bool
	Err      error
}

// View returns the content for the snapshot's step, nil while unresolved.
func (s Snapshot) View() View {
	if !s.Resolved {
		return nil
	}
	return Select(s.Step, s.Record)
}

// NewStore creates a store. Remote and Opener are required.
func NewStore(opts Options) (*Store, error) {
	if opts.Remote == nil {
		return nil, errors.New("verification: remote is required")
	}
	if opts.Opener == nil {
		return nil, errors.New("verification: opener is required")
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Store{opts: opts, ready: true}, nil
}

func (s *Store) mustReady() {
	if s == nil || !s.ready {
		panic("verification: store used before initialization; use NewStore")
	}
}

// Load starts a new session for slug and fetches its record. It returns
// ErrStaleSession when another Load superseded this one before the fetch
// resolved; the result is then discarded.
func (s *Store) Load(ctx context.Context, slug string) error {
	s.mustReady()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.slug = slug
	s.record = nil
	s.resolved = false
	s.loadErr = nil
	s.active = nil
	s.mu.Unlock()

	rec, err := callWithTimeout(ctx, s.opts.CallTimeout, func(ctx context.Context) (*Record, error) {
		return s.opts.Remote.Fetch(ctx, slug)
	})
	switch {
	case err == nil:
		if verr := ValidateRecord(nil, rec); verr != nil {
			err = &RemoteError{Op: "fetch", Err: verr}
			rec = nil
		}
	case errors.Is(err, ErrNotFound):
		rec = nil
	default:
		err = &RemoteError{Op: "fetch", Err: err}
		rec = nil
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.opts.Logger.Debug("Dropping stale verification fetch", zap.String("slug", slug))
		return ErrStaleSession
	}
	index, ok := Resolve(FetchOutcome{Record: rec, Err: err})
	if ok {
		s.record = rec.Clone()
		s.step = index
		s.resolved = true
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.loadErr = err
	}
	s.mu.Unlock()

	if ok {
		s.opts.Logger.Info("Verification session loaded",
			zap.String("slug", slug),
			zap.Int("step", index),
			zap.Bool("has_record", rec != nil))
		return nil
	}
	s.fail(err, map[string]string{"section": "getVerificationData", "slug": slug})
	return err
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mustReady()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Slug:     s.slug,
		Record:   s.record.Clone(),
		Step:     s.step,
		Resolved: s.resolved,
		Err:      s.loadErr,
	}
}

// Slug returns the active session identifier.
func (s *Store) Slug() string {
	s.mustReady()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slug
}

// Controller returns the transition controller for the active step. The same
// instance is returned until the step or session changes.
func (s *Store) Controller() (*Controller, error) {
	s.mustReady()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolved {
		return nil, ErrNotLoaded
	}
	if s.active == nil || s.active.gen != s.generation || s.active.index != s.step {
		name, _ := StepAt(s.step)
		s.active = &Controller{store: s, gen: s.generation, index: s.step, step: name}
	}
	return s.active, nil
}

// Socials returns the social link handler for the active session.
func (s *Store) Socials() *SocialLinker {
	s.mustReady()
	return &SocialLinker{store: s}
}

// current returns a copy of the record for generation gen.
func (s *Store) current(gen uint64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrStaleSession
	}
	return s.record.Clone(), nil
}

// stepState returns the record and slug when index is still the active step
// of generation gen.
func (s *Store) stepState(gen uint64, index int) (*Record, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || !s.resolved || index != s.step {
		return nil, "", ErrStaleSession
	}
	return s.record.Clone(), s.slug, nil
}

func (s *Store) generationOf() (uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.slug
}

func (s *Store) isStale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

// moveTo sets the step from index to to, replacing the record when rec is
// non-nil. It fails without change when the session or step moved on.
func (s *Store) moveTo(gen uint64, from, to int, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || !s.resolved || s.step != from {
		return ErrStaleSession
	}
	if rec != nil {
		s.record = rec.Clone()
	}
	s.step = to
	return nil
}

// fail notifies the user and reports err.
func (s *Store) fail(err error, tags map[string]string) {
	if err == nil || errors.Is(err, ErrStaleSession) {
		return
	}
	s.opts.Logger.Error("Verification call failed", zap.Error(err), zap.Any("tags", tags))
	s.opts.Notifier.Notify(err.Error(), SeverityError)
	s.opts.Reporter.ReportError(err, tags)
}

// callWithTimeout runs fn under d. When d elapses the call is abandoned: the
// caller gets an error at once and the eventual result is dropped.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("remote call abandoned: %w", ctx.Err())
	}
}

type nopReporter struct{}

func (nopReporter) ReportError(error, map[string]string) {}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Severity) {}

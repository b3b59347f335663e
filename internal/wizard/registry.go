package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"project-verification/portal-backend/internal/verification"
)

// StoreFactory builds the state store for one project session
type StoreFactory func(slug string) (*verification.Store, error)

// Session is one project's wizard, shared by every request for its slug
type Session struct {
	Slug  string
	Store *verification.Store

	loadMu   sync.Mutex
	mu       sync.Mutex
	contacts *verification.ContactsForm
	lastSeen time.Time
}

// ensureLoaded fetches the record unless a previous load resolved a step
func (s *Session) ensureLoaded(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.Store.Snapshot().Resolved {
		return nil
	}
	return s.Store.Load(ctx, s.Slug)
}

// Reload re-fetches the record and discards local contact edits
func (s *Session) Reload(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.ResetContacts()
	return s.Store.Load(ctx, s.Slug)
}

// Contacts returns the contacts form being edited, built from the record on first use
func (s *Session) Contacts() *verification.ContactsForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contactsLocked()
}

func (s *Session) contactsLocked() *verification.ContactsForm {
	if s.contacts == nil {
		s.contacts = verification.NewContactsForm(s.Store.Snapshot().Record)
	}
	return s.contacts
}

// ContactsSnapshot returns a copy of the contacts form
func (s *Session) ContactsSnapshot() *verification.ContactsForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contactsLocked().Clone()
}

// EditContacts runs fn on the contacts form under the session lock
func (s *Session) EditContacts(fn func(*verification.ContactsForm) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.contactsLocked())
}

// ResetContacts drops local contact edits
func (s *Session) ResetContacts() {
	s.mu.Lock()
	s.contacts = nil
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// busy reports whether an advance is outstanding
func (s *Session) busy() bool {
	ctrl, err := s.Store.Controller()
	return err == nil && ctrl.InFlight()
}

// Registry keeps one session per project slug and evicts idle ones
type Registry struct {
	factory StoreFactory
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	cron    *cron.Cron
	running bool
}

// NewRegistry creates a registry; sessions idle longer than ttl are swept
func NewRegistry(factory StoreFactory, ttl time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		cron:     cron.New(),
	}
}

// Session returns the session for slug, creating it on first use. It does not fetch.
func (r *Registry) Session(slug string) (*Session, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[slug]; ok {
		s.touch(now)
		return s, nil
	}

	store, err := r.factory(slug)
	if err != nil {
		return nil, fmt.Errorf("failed to create store for %s: %w", slug, err)
	}
	s := &Session{Slug: slug, Store: store, lastSeen: now}
	r.sessions[slug] = s
	r.logger.Debug("Session created", zap.String("slug", slug))
	return s, nil
}

// Open returns the session for slug with its record loaded
func (r *Registry) Open(ctx context.Context, slug string) (*Session, error) {
	s, err := r.Session(slug)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than the ttl. Sessions with an advance
// outstanding are kept. It returns the number evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for slug, s := range r.sessions {
		if s.idleSince().After(cutoff) || s.busy() {
			continue
		}
		delete(r.sessions, slug)
		evicted++
	}
	if evicted > 0 {
		r.logger.Info("Swept idle sessions", zap.Int("evicted", evicted), zap.Int("remaining", len(r.sessions)))
	}
	return evicted
}

// Start schedules Sweep with a cron spec such as "@every 5m"
func (r *Registry) Start(schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("session sweeper already running")
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.Sweep() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.running = true
	r.logger.Info("Session sweeper started", zap.String("schedule", schedule), zap.Duration("ttl", r.ttl))
	return nil
}

// Stop stops the sweeper and waits for a running sweep
func (r *Registry) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	ctx := r.cron.Stop()
	<-ctx.Done()
}

package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRemote is a mock implementation of the Remote interface
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Fetch(ctx context.Context, slug string) (*Record, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRemote) Create(ctx context.Context, slug string) (*Record, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRemote) Update(ctx context.Context, verificationID string, step StepName, input UpdateInput) (*Record, error) {
	args := m.Called(ctx, verificationID, step, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRemote) RequestSocialAuthorization(ctx context.Context, platform, verificationID string) (string, error) {
	args := m.Called(ctx, platform, verificationID)
	return args.String(0), args.Error(1)
}

type notice struct {
	Message  string
	Severity Severity
}

type recorder struct {
	mu      sync.Mutex
	notices []notice
	reports []map[string]string
	opened  []string
}

func (r *recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{Message: message, Severity: severity})
}

func (r *recorder) ReportError(_ error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, tags)
}

func (r *recorder) Open(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, url)
	return nil
}

func (r *recorder) Notices() []notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notice(nil), r.notices...)
}

func (r *recorder) Reports() []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]string(nil), r.reports...)
}

func (r *recorder) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}

func newTestStore(t *testing.T, remote Remote, rec *recorder) *Store {
	t.Helper()
	store, err := NewStore(Options{
		Remote:      remote,
		Reporter:    rec,
		Notifier:    rec,
		Opener:      rec,
		CallTimeout: time.Second,
	})
	require.NoError(t, err)
	return store
}

func draftRecord() *Record {
	return &Record{
		ID:             "42",
		Status:         StatusDraft,
		LastStep:       StepPersonalInfo,
		EmailConfirmed: true,
		Email:          "owner@example.org",
		PersonalInfo: &PersonalInfo{
			FullName:      "Ada Owner",
			WalletAddress: "0xabc",
			Email:         "owner@example.org",
		},
	}
}

// loadedStore returns a store loaded with rec for slug "my-project".
func loadedStore(t *testing.T, rec *Record) (*Store, *MockRemote, *recorder) {
	t.Helper()
	remote := new(MockRemote)
	r := &recorder{}
	store := newTestStore(t, remote, r)
	remote.On("Fetch", mock.Anything, "my-project").Return(rec, nil).Once()
	require.NoError(t, store.Load(context.Background(), "my-project"))
	return store, remote, r
}

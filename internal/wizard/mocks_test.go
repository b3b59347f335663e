package wizard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"project-verification/portal-backend/internal/verification"
)

// MockRemote is a mock implementation of verification.Remote
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Fetch(ctx context.Context, slug string) (*verification.Record, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.Record), args.Error(1)
}

func (m *MockRemote) Create(ctx context.Context, slug string) (*verification.Record, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.Record), args.Error(1)
}

func (m *MockRemote) Update(ctx context.Context, verificationID string, step verification.StepName, input verification.UpdateInput) (*verification.Record, error) {
	args := m.Called(ctx, verificationID, step, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.Record), args.Error(1)
}

func (m *MockRemote) RequestSocialAuthorization(ctx context.Context, platform, verificationID string) (string, error) {
	args := m.Called(ctx, platform, verificationID)
	return args.String(0), args.Error(1)
}

type openRecorder struct {
	mu     sync.Mutex
	opened []string
}

func (o *openRecorder) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, url)
	return nil
}

func (o *openRecorder) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

func testRegistry(t *testing.T, remote verification.Remote, opener verification.Opener) *Registry {
	t.Helper()
	return NewRegistry(func(slug string) (*verification.Store, error) {
		return verification.NewStore(verification.Options{
			Remote:      remote,
			Opener:      opener,
			CallTimeout: time.Second,
		})
	}, time.Minute, zap.NewNop())
}

func draftRecord(lastStep verification.StepName) *verification.Record {
	return &verification.Record{
		ID:             "42",
		Status:         verification.StatusDraft,
		LastStep:       lastStep,
		EmailConfirmed: true,
		Email:          "owner@example.org",
		PersonalInfo: &verification.PersonalInfo{
			FullName:      "Ada Owner",
			WalletAddress: "0xabc",
			Email:         "owner@example.org",
		},
	}
}

func requireLoaded(t *testing.T, r *Registry, slug string) *Session {
	t.Helper()
	s, err := r.Open(context.Background(), slug)
	require.NoError(t, err)
	return s
}

package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestZeroStorePanics(t *testing.T) {
	var zero Store
	assert.Panics(t, func() { zero.Snapshot() })

	var nilStore *Store
	assert.Panics(t, func() { _ = nilStore.Load(context.Background(), "x") })
}

func TestNewStoreRequiresCollaborators(t *testing.T) {
	_, err := NewStore(Options{})
	assert.Error(t, err)

	_, err = NewStore(Options{Remote: new(MockRemote)})
	assert.Error(t, err)
}

func TestLoadResolvesStep(t *testing.T) {
	store, remote, _ := loadedStore(t, draftRecord())

	snap := store.Snapshot()
	assert.True(t, snap.Resolved)
	assert.Equal(t, "my-project", snap.Slug)
	assert.Equal(t, 2, snap.Step)
	assert.Equal(t, "42", snap.Record.ID)
	assert.IsType(t, SocialProfilesView{}, snap.View())
	remote.AssertExpectations(t)
}

func TestLoadNotFoundStartsAtEntryStep(t *testing.T) {
	remote := new(MockRemote)
	rec := &recorder{}
	store := newTestStore(t, remote, rec)
	remote.On("Fetch", mock.Anything, "new-project").Return(nil, ErrNotFound)

	require.NoError(t, store.Load(context.Background(), "new-project"))

	snap := store.Snapshot()
	assert.True(t, snap.Resolved)
	assert.Equal(t, 0, snap.Step)
	assert.Nil(t, snap.Record)
	assert.Empty(t, rec.Notices())
	assert.Empty(t, rec.Reports())
}

func TestLoadRemoteErrorIsSurfacedAndReported(t *testing.T) {
	remote := new(MockRemote)
	rec := &recorder{}
	store := newTestStore(t, remote, rec)
	remote.On("Fetch", mock.Anything, "my-project").Return(nil, errors.New("bad gateway"))

	err := store.Load(context.Background(), "my-project")

	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	snap := store.Snapshot()
	assert.False(t, snap.Resolved)
	assert.Nil(t, snap.View())
	assert.Equal(t, err, snap.Err)
	require.Len(t, rec.Reports(), 1)
	assert.Equal(t, "getVerificationData", rec.Reports()[0]["section"])
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, SeverityError, rec.Notices()[0].Severity)

	_, err = store.Controller()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoadRejectsMalformedPayload(t *testing.T) {
	remote := new(MockRemote)
	rec := &recorder{}
	store := newTestStore(t, remote, rec)
	remote.On("Fetch", mock.Anything, "my-project").Return(&Record{ID: "1", Status: "archived"}, nil)

	err := store.Load(context.Background(), "my-project")

	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.False(t, store.Snapshot().Resolved)
}

func TestLoadDropsResultOfPreviousIdentifier(t *testing.T) {
	remote := new(MockRemote)
	rec := &recorder{}
	store := newTestStore(t, remote, rec)

	release := make(chan struct{})
	started := make(chan struct{})
	recA := draftRecord()
	recA.ID = "A"
	recB := draftRecord()
	recB.ID = "B"
	recB.LastStep = StepProjectRegistry

	remote.On("Fetch", mock.Anything, "project-a").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(recA, nil)
	remote.On("Fetch", mock.Anything, "project-b").Return(recB, nil)

	errA := make(chan error, 1)
	go func() { errA <- store.Load(context.Background(), "project-a") }()
	<-started

	require.NoError(t, store.Load(context.Background(), "project-b"))
	before := store.Snapshot()

	close(release)
	assert.ErrorIs(t, <-errA, ErrStaleSession)

	after := store.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, "B", after.Record.ID)
	assert.Equal(t, 4, after.Step)
	assert.Empty(t, rec.Notices())
	assert.Empty(t, rec.Reports())
}

func TestLoadTimesOut(t *testing.T) {
	remote := new(MockRemote)
	rec := &recorder{}
	store, err := NewStore(Options{Remote: remote, Opener: rec, Notifier: rec, Reporter: rec, CallTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	block := make(chan struct{})
	defer close(block)
	remote.On("Fetch", mock.Anything, "slow").Run(func(mock.Arguments) { <-block }).Return(draftRecord(), nil)

	err = store.Load(context.Background(), "slow")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, store.Snapshot().Resolved)
}

func TestSnapshotIsACopy(t *testing.T) {
	store, _, _ := loadedStore(t, draftRecord())

	snap := store.Snapshot()
	snap.Record.PersonalInfo.FullName = "Mallory"

	assert.Equal(t, "Ada Owner", store.Snapshot().Record.PersonalInfo.FullName)
}

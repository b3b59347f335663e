package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLinkWithoutProfileOpensAuthorization(t *testing.T) {
	store, remote, rec := loadedStore(t, draftRecord())
	remote.On("RequestSocialAuthorization", mock.Anything, "discord", "42").
		Return("https://discord.com/oauth2/authorize?state=abc", nil).Once()

	url, err := store.Socials().Link(context.Background(), "discord")

	require.NoError(t, err)
	assert.Equal(t, "https://discord.com/oauth2/authorize?state=abc", url)
	assert.Equal(t, []string{url}, rec.Opened())
	remote.AssertNumberOfCalls(t, "RequestSocialAuthorization", 1)
	assert.Nil(t, store.Snapshot().Record.SocialProfiles)
}

func TestLinkWithExistingProfileOnlyNotifies(t *testing.T) {
	loaded := draftRecord()
	loaded.SocialProfiles = []SocialProfile{{SocialNetwork: "discord", SocialNetworkID: "ada#1"}}
	store, remote, rec := loadedStore(t, loaded)

	url, err := store.Socials().Link(context.Background(), "discord")

	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Empty(t, rec.Opened())
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, SeverityInfo, rec.Notices()[0].Severity)
	assert.Equal(t, "You already connected a discord profile", rec.Notices()[0].Message)
	remote.AssertNotCalled(t, "RequestSocialAuthorization", mock.Anything, mock.Anything, mock.Anything)
	remote.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestLinkFailureIsReported(t *testing.T) {
	store, remote, rec := loadedStore(t, draftRecord())
	remote.On("RequestSocialAuthorization", mock.Anything, "linkedin", "42").Return("", errors.New("unavailable"))

	_, err := store.Socials().Link(context.Background(), "LinkedIn")

	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Empty(t, rec.Opened())
	require.Len(t, rec.Reports(), 1)
	assert.Equal(t, "socialLink", rec.Reports()[0]["section"])
}

func TestLinkRejectsUnknownPlatformAndBadURL(t *testing.T) {
	store, remote, rec := loadedStore(t, draftRecord())

	_, err := store.Socials().Link(context.Background(), "myspace")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	remote.On("RequestSocialAuthorization", mock.Anything, "discord", "42").Return("javascript:alert(1)", nil)
	_, err = store.Socials().Link(context.Background(), "discord")
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Empty(t, rec.Opened())
}

func TestLinkBeforeLoad(t *testing.T) {
	remote := new(MockRemote)
	store := newTestStore(t, remote, &recorder{})
	remote.On("Fetch", mock.Anything, "new").Return(nil, ErrNotFound)
	require.NoError(t, store.Load(context.Background(), "new"))

	_, err := store.Socials().Link(context.Background(), "discord")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestContactsFormPayload(t *testing.T) {
	rec := draftRecord()
	rec.ProjectContacts = []ProjectContact{
		{Name: "mastodon", URL: "https://mastodon.social/@trees"},
		{Name: "website", URL: "https://trees.example"},
		{Name: "twitter", URL: "https://twitter.com/trees"},
	}

	form := NewContactsForm(rec)
	assert.False(t, form.Dirty())
	assert.False(t, form.Changed(&Record{ProjectContacts: []ProjectContact{
		{Name: "twitter", URL: "https://twitter.com/trees"},
		{Name: "website", URL: "https://trees.example"},
		{Name: "mastodon", URL: "https://mastodon.social/@trees"},
	}}))

	require.NoError(t, form.SetMain("YouTube", "https://youtube.com/@trees"))
	assert.Equal(t, []ProjectContact{
		{Name: "twitter", URL: "https://twitter.com/trees"},
		{Name: "youtube", URL: "https://youtube.com/@trees"},
		{Name: "website", URL: "https://trees.example"},
		{Name: "mastodon", URL: "https://mastodon.social/@trees"},
	}, form.Input().ProjectContacts)
}

func TestContactsFormUnlinkIsLocal(t *testing.T) {
	rec := draftRecord()
	rec.LastStep = StepProjectRegistry
	rec.ProjectContacts = []ProjectContact{
		{Name: "twitter", URL: "https://twitter.com/trees"},
		{Name: "mastodon", URL: "https://mastodon.social/@trees"},
	}
	store, remote, _ := loadedStore(t, rec)
	require.Equal(t, 4, store.Snapshot().Step)

	form := NewContactsForm(store.Snapshot().Record)
	assert.True(t, form.Unlink("Mastodon"))
	assert.False(t, form.Unlink("mastodon"))
	assert.True(t, form.Dirty())
	assert.Len(t, store.Snapshot().Record.ProjectContacts, 2)
	remote.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	saved := rec.Clone()
	saved.LastStep = StepProjectContacts
	saved.ProjectContacts = []ProjectContact{{Name: "twitter", URL: "https://twitter.com/trees"}}
	remote.On("Update", mock.Anything, "42", StepProjectContacts, UpdateInput{
		ProjectContacts: []ProjectContact{{Name: "twitter", URL: "https://twitter.com/trees"}},
	}).Return(saved, nil).Once()

	ctrl, err := store.Controller()
	require.NoError(t, err)
	require.NoError(t, ctrl.Advance(context.Background(), form))

	assert.Equal(t, 5, store.Snapshot().Step)
	assert.Len(t, store.Snapshot().Record.ProjectContacts, 1)
	remote.AssertExpectations(t)
}

func TestContactsFormValidation(t *testing.T) {
	form := &ContactsForm{}

	assert.Error(t, form.AddOther(ProjectContact{Name: "twitter", URL: "https://twitter.com/x"}))
	assert.Error(t, form.AddOther(ProjectContact{Name: "blog", URL: "not a url"}))
	require.NoError(t, form.AddOther(ProjectContact{Name: "blog", URL: "https://blog.example"}))
	assert.Error(t, form.AddOther(ProjectContact{Name: "Blog", URL: "https://blog.example/2"}))
	assert.Error(t, form.SetMain("blog", "https://blog.example"))

	form.Twitter = "https://facebook.com/trees"
	err := form.Validate(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "twitter")

	form.Twitter = "https://x.com/trees"
	assert.NoError(t, form.Validate(nil))
}

func TestSplitContacts(t *testing.T) {
	main, other := SplitContacts([]ProjectContact{
		{Name: "Twitter", URL: "a"},
		{Name: "discord server", URL: "b"},
		{Name: "website", URL: "c"},
	})
	assert.Equal(t, []ProjectContact{{Name: "Twitter", URL: "a"}, {Name: "website", URL: "c"}}, main)
	assert.Equal(t, []ProjectContact{{Name: "discord server", URL: "b"}}, other)
}

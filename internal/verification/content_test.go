package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kindRecorder names the visited view kind.
type kindRecorder struct{ kind string }

func (k *kindRecorder) VisitBeforeStart(BeforeStartView)         { k.kind = "before_start" }
func (k *kindRecorder) VisitPersonalInfo(PersonalInfoView)       { k.kind = "personal_info" }
func (k *kindRecorder) VisitSocialProfiles(SocialProfilesView)   { k.kind = "social_profiles" }
func (k *kindRecorder) VisitProjectRegistry(ProjectRegistryView) { k.kind = "project_registry" }
func (k *kindRecorder) VisitProjectContacts(ProjectContactsView) { k.kind = "project_contacts" }
func (k *kindRecorder) VisitManagingFunds(ManagingFundsView)     { k.kind = "managing_funds" }
func (k *kindRecorder) VisitMilestones(MilestonesView)           { k.kind = "milestones" }
func (k *kindRecorder) VisitTerms(TermsView)                     { k.kind = "terms" }
func (k *kindRecorder) VisitDone(DoneView)                       { k.kind = "done" }

func TestSelectCoversEveryStep(t *testing.T) {
	kinds := []string{
		"before_start", "personal_info", "social_profiles", "project_registry",
		"project_contacts", "managing_funds", "milestones", "terms", "done",
	}
	require.Len(t, kinds, LastIndex+1)

	for i, want := range kinds {
		view := Select(i, draftRecord())
		require.NotNil(t, view, "index %d", i)

		name, _ := StepAt(i)
		assert.Equal(t, name, view.Step())

		k := &kindRecorder{}
		view.Accept(k)
		assert.Equal(t, want, k.kind)
	}
}

func TestSelectOutOfRangeHasNoContent(t *testing.T) {
	assert.Nil(t, Select(-1, nil))
	assert.Nil(t, Select(LastIndex+1, draftRecord()))
}

func TestSelectDoesNotMutateRecord(t *testing.T) {
	rec := draftRecord()
	rec.ProjectContacts = []ProjectContact{
		{Name: "twitter", URL: "https://twitter.com/proj"},
		{Name: "mastodon", URL: "https://mastodon.social/@proj"},
	}
	before := rec.Clone()

	view := Select(4, rec)
	contacts := view.(ProjectContactsView)
	assert.Equal(t, "https://twitter.com/proj", contacts.Main["twitter"])
	assert.Equal(t, []ProjectContact{{Name: "mastodon", URL: "https://mastodon.social/@proj"}}, contacts.Other)

	contacts.Other[0].Name = "changed"
	assert.Equal(t, before, rec)
}

func TestSelectReadOnlyForNonDraft(t *testing.T) {
	rec := draftRecord()
	rec.Status = StatusSubmitted

	view := Select(7, rec).(TermsView)
	assert.True(t, view.ReadOnly)

	social := Select(2, rec).(SocialProfilesView)
	assert.True(t, social.ReadOnly)
	assert.Nil(t, social.Discord)
}

func TestSelectWithoutRecord(t *testing.T) {
	assert.Equal(t, BeforeStartView{HasRecord: false}, Select(0, nil))
	assert.Equal(t, DoneView{}, Select(LastIndex, nil))
}

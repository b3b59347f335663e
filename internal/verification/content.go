package verification

// View describes what the wizard shows for one step. The set of views is
// closed: every implementation lives in this file and ViewVisitor has one
// method per kind, so adding a step breaks every visitor until it handles it.
type View interface {
	Step() StepName
	Accept(v ViewVisitor)
	sealed()
}

// ViewVisitor handles each view kind.
type ViewVisitor interface {
	VisitBeforeStart(BeforeStartView)
	VisitPersonalInfo(PersonalInfoView)
	VisitSocialProfiles(SocialProfilesView)
	VisitProjectRegistry(ProjectRegistryView)
	VisitProjectContacts(ProjectContactsView)
	VisitManagingFunds(ManagingFundsView)
	VisitMilestones(MilestonesView)
	VisitTerms(TermsView)
	VisitDone(DoneView)
}

type BeforeStartView struct {
	HasRecord bool
}

type PersonalInfoView struct {
	ReadOnly       bool
	Email          string
	EmailConfirmed bool
	Info           PersonalInfo
}

type SocialProfilesView struct {
	ReadOnly bool
	Discord  *SocialProfile
	LinkedIn *SocialProfile
}

type ProjectRegistryView struct {
	ReadOnly bool
	Registry ProjectRegistry
}

type ProjectContactsView struct {
	ReadOnly bool
	Main     map[string]string
	Other    []ProjectContact
}

type ManagingFundsView struct {
	ReadOnly bool
	Funds    ManagingFunds
}

type MilestonesView struct {
	ReadOnly   bool
	Milestones Milestones
}

type TermsView struct {
	ReadOnly bool
	Accepted bool
}

type DoneView struct {
	Status Status
}

func (BeforeStartView) Step() StepName     { return StepBeforeStart }
func (PersonalInfoView) Step() StepName    { return StepPersonalInfo }
func (SocialProfilesView) Step() StepName  { return StepSocialProfiles }
func (ProjectRegistryView) Step() StepName { return StepProjectRegistry }
func (ProjectContactsView) Step() StepName { return StepProjectContacts }
func (ManagingFundsView) Step() StepName   { return StepManagingFunds }
func (MilestonesView) Step() StepName      { return StepMilestones }
func (TermsView) Step() StepName           { return StepTermAndCondition }
func (DoneView) Step() StepName            { return StepSubmit }

func (v BeforeStartView) Accept(vis ViewVisitor)     { vis.VisitBeforeStart(v) }
func (v PersonalInfoView) Accept(vis ViewVisitor)    { vis.VisitPersonalInfo(v) }
func (v SocialProfilesView) Accept(vis ViewVisitor)  { vis.VisitSocialProfiles(v) }
func (v ProjectRegistryView) Accept(vis ViewVisitor) { vis.VisitProjectRegistry(v) }
func (v ProjectContactsView) Accept(vis ViewVisitor) { vis.VisitProjectContacts(v) }
func (v ManagingFundsView) Accept(vis ViewVisitor)   { vis.VisitManagingFunds(v) }
func (v MilestonesView) Accept(vis ViewVisitor)      { vis.VisitMilestones(v) }
func (v TermsView) Accept(vis ViewVisitor)           { vis.VisitTerms(v) }
func (v DoneView) Accept(vis ViewVisitor)            { vis.VisitDone(v) }

func (BeforeStartView) sealed()     {}
func (PersonalInfoView) sealed()    {}
func (SocialProfilesView) sealed()  {}
func (ProjectRegistryView) sealed() {}
func (ProjectContactsView) sealed() {}
func (ManagingFundsView) sealed()   {}
func (MilestonesView) sealed()      {}
func (TermsView) sealed()           {}
func (DoneView) sealed()            {}

// Select maps a step index to its view. It returns nil for an index with no
// step. rec may be nil before a form exists; Select never mutates it.
func Select(index int, rec *Record) View {
	name, ok := StepAt(index)
	if !ok {
		return nil
	}
	readOnly := rec != nil && !rec.IsDraft()

	switch name {
	case StepBeforeStart:
		return BeforeStartView{HasRecord: rec != nil}
	case StepPersonalInfo:
		v := PersonalInfoView{ReadOnly: readOnly}
		if rec != nil {
			v.Email = rec.Email
			v.EmailConfirmed = rec.EmailConfirmed
			if rec.PersonalInfo != nil {
				v.Info = *rec.PersonalInfo
			}
		}
		return v
	case StepSocialProfiles:
		v := SocialProfilesView{ReadOnly: readOnly}
		if p, ok := rec.Profile(PlatformDiscord); ok {
			v.Discord = &p
		}
		if p, ok := rec.Profile(PlatformLinkedIn); ok {
			v.LinkedIn = &p
		}
		return v
	case StepProjectRegistry:
		v := ProjectRegistryView{ReadOnly: readOnly}
		if rec != nil && rec.ProjectRegistry != nil {
			v.Registry = *rec.ProjectRegistry
		}
		return v
	case StepProjectContacts:
		v := ProjectContactsView{ReadOnly: readOnly, Main: map[string]string{}}
		if rec != nil {
			main, other := SplitContacts(rec.ProjectContacts)
			for _, c := range main {
				v.Main[c.Name] = c.URL
			}
			v.Other = other
		}
		return v
	case StepManagingFunds:
		v := ManagingFundsView{ReadOnly: readOnly}
		if rec != nil && rec.ManagingFunds != nil {
			v.Funds = *rec.ManagingFunds
			v.Funds.RelatedAddresses = append([]RelatedAddress(nil), rec.ManagingFunds.RelatedAddresses...)
		}
		return v
	case StepMilestones:
		v := MilestonesView{ReadOnly: readOnly}
		if rec != nil && rec.Milestones != nil {
			v.Milestones = *rec.Milestones
			v.Milestones.AchievedMilestonesProofs = append([]string(nil), rec.Milestones.AchievedMilestonesProofs...)
		}
		return v
	case StepTermAndCondition:
		v := TermsView{ReadOnly: readOnly}
		if rec != nil {
			v.Accepted = rec.IsTermsAccepted
		}
		return v
	case StepSubmit:
		v := DoneView{}
		if rec != nil {
			v.Status = rec.Status
		}
		return v
	}
	return nil
}

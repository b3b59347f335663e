package verification

import (
	"reflect"
	"strings"
)

// UpdateInput is the partial payload written for one step. Only the section
// belonging to the step is set.
type UpdateInput struct {
	PersonalInfo    *PersonalInfo    `json:"personalInfo,omitempty"`
	ProjectRegistry *ProjectRegistry `json:"projectRegistry,omitempty"`
	ProjectContacts []ProjectContact `json:"projectContacts"`
	ManagingFunds   *ManagingFunds   `json:"managingFunds,omitempty"`
	Milestones      *Milestones      `json:"milestones,omitempty"`
	IsTermsAccepted *bool            `json:"isTermAndConditionsAccepted,omitempty"`
}

// Form is the local input of one step.
type Form interface {
	// Step names the step the form belongs to.
	Step() StepName
	// Validate runs local rules only; rec is the current cached record.
	Validate(rec *Record) error
	// Input builds the partial payload for the remote write.
	Input() UpdateInput
	// Changed reports whether the form differs from rec.
	Changed(rec *Record) bool
}

type BeforeStartForm struct{}

func (BeforeStartForm) Step() StepName           { return StepBeforeStart }
func (BeforeStartForm) Validate(*Record) error   { return nil }
func (BeforeStartForm) Input() UpdateInput       { return UpdateInput{} }
func (BeforeStartForm) Changed(rec *Record) bool { return rec == nil }

type PersonalInfoForm struct {
	FullName      string `json:"fullName" validate:"required,max=100"`
	WalletAddress string `json:"walletAddress" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
}

func (PersonalInfoForm) Step() StepName { return StepPersonalInfo }

func (f PersonalInfoForm) Validate(rec *Record) error {
	verr := validateStruct(f)
	if rec != nil && !rec.EmailConfirmed {
		verr.add("email", "email address is not confirmed")
	}
	return verr.orNil()
}

func (f PersonalInfoForm) Input() UpdateInput {
	pi := PersonalInfo(f)
	return UpdateInput{PersonalInfo: &pi}
}

func (f PersonalInfoForm) Changed(rec *Record) bool {
	return rec == nil || rec.PersonalInfo == nil || *rec.PersonalInfo != PersonalInfo(f)
}

// SocialProfilesForm has no inputs; profiles are linked through Link.
type SocialProfilesForm struct{}

func (SocialProfilesForm) Step() StepName { return StepSocialProfiles }

func (SocialProfilesForm) Validate(rec *Record) error {
	verr := &ValidationError{}
	for _, platform := range []string{PlatformDiscord, PlatformLinkedIn} {
		if p, ok := rec.Profile(platform); ok && p.Linked() {
			return nil
		}
	}
	verr.add("socialProfiles", "connect at least one social profile")
	return verr
}

func (SocialProfilesForm) Input() UpdateInput   { return UpdateInput{} }
func (SocialProfilesForm) Changed(*Record) bool { return false }

type ProjectRegistryForm struct {
	IsNonProfitOrganization bool   `json:"isNonProfitOrganization"`
	OrganizationCountry     string `json:"organizationCountry" validate:"required_if=IsNonProfitOrganization true"`
	OrganizationWebsite     string `json:"organizationWebsite" validate:"omitempty,http_url"`
	OrganizationDescription string `json:"organizationDescription" validate:"required,max=2000"`
	OrganizationName        string `json:"organizationName" validate:"required"`
}

func (ProjectRegistryForm) Step() StepName { return StepProjectRegistry }

func (f ProjectRegistryForm) Validate(*Record) error {
	return validateStruct(f).orNil()
}

func (f ProjectRegistryForm) Input() UpdateInput {
	pr := ProjectRegistry(f)
	return UpdateInput{ProjectRegistry: &pr}
}

func (f ProjectRegistryForm) Changed(rec *Record) bool {
	return rec == nil || rec.ProjectRegistry == nil || *rec.ProjectRegistry != ProjectRegistry(f)
}

type ManagingFundsForm struct {
	Description      string                `json:"description" validate:"required,max=2000"`
	RelatedAddresses []RelatedAddressInput `json:"relatedAddresses" validate:"required,min=1,dive"`
}

type RelatedAddressInput struct {
	Title     string `json:"title" validate:"required"`
	Address   string `json:"address" validate:"required"`
	NetworkID int    `json:"networkId" validate:"required,gt=0"`
}

func (ManagingFundsForm) Step() StepName { return StepManagingFunds }

func (f ManagingFundsForm) Validate(*Record) error {
	return validateStruct(f).orNil()
}

func (f ManagingFundsForm) funds() ManagingFunds {
	mf := ManagingFunds{Description: f.Description, RelatedAddresses: []RelatedAddress{}}
	for _, a := range f.RelatedAddresses {
		mf.RelatedAddresses = append(mf.RelatedAddresses, RelatedAddress(a))
	}
	return mf
}

func (f ManagingFundsForm) Input() UpdateInput {
	mf := f.funds()
	return UpdateInput{ManagingFunds: &mf}
}

func (f ManagingFundsForm) Changed(rec *Record) bool {
	if rec == nil || rec.ManagingFunds == nil {
		return true
	}
	cur := *rec.ManagingFunds
	if cur.RelatedAddresses == nil {
		cur.RelatedAddresses = []RelatedAddress{}
	}
	return !reflect.DeepEqual(cur, f.funds())
}

type MilestonesForm struct {
	FoundationDate           string   `json:"foundationDate" validate:"required,datetime=2006-01-02"`
	Mission                  string   `json:"mission" validate:"required,max=2000"`
	AchievedMilestones       string   `json:"achievedMilestones" validate:"required,max=2000"`
	AchievedMilestonesProofs []string `json:"achievedMilestonesProofs" validate:"dive,http_url"`
}

func (MilestonesForm) Step() StepName { return StepMilestones }

func (f MilestonesForm) Validate(*Record) error {
	return validateStruct(f).orNil()
}

func (f MilestonesForm) milestones() Milestones {
	ms := Milestones(f)
	ms.AchievedMilestonesProofs = append([]string{}, f.AchievedMilestonesProofs...)
	return ms
}

func (f MilestonesForm) Input() UpdateInput {
	ms := f.milestones()
	return UpdateInput{Milestones: &ms}
}

func (f MilestonesForm) Changed(rec *Record) bool {
	if rec == nil || rec.Milestones == nil {
		return true
	}
	cur := *rec.Milestones
	if cur.AchievedMilestonesProofs == nil {
		cur.AchievedMilestonesProofs = []string{}
	}
	return !reflect.DeepEqual(cur, f.milestones())
}

type TermsForm struct {
	Accepted bool `json:"isTermAndConditionsAccepted"`
}

func (TermsForm) Step() StepName { return StepTermAndCondition }

func (f TermsForm) Validate(*Record) error {
	if !f.Accepted {
		return &ValidationError{Fields: map[string]string{
			"isTermAndConditionsAccepted": "terms and conditions must be accepted",
		}}
	}
	return nil
}

func (f TermsForm) Input() UpdateInput {
	accepted := f.Accepted
	return UpdateInput{IsTermsAccepted: &accepted}
}

func (f TermsForm) Changed(rec *Record) bool {
	return rec == nil || rec.IsTermsAccepted != f.Accepted
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

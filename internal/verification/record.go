package verification

import (
	"fmt"
	"strings"

	"project-verification/portal-backend/pkg/workflows"
)

// Status is the lifecycle state of a verification form.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusVerified  Status = "verified"
	StatusRejected  Status = "rejected"
)

// Social platforms that are linked through an authorization redirect.
const (
	PlatformDiscord  = "discord"
	PlatformLinkedIn = "linkedin"
)

// SocialProfile is a personal account linked through the verification service.
type SocialProfile struct {
	ID              string `json:"id"`
	SocialNetwork   string `json:"socialNetwork" validate:"required"`
	SocialNetworkID string `json:"socialNetworkId"`
	Name            string `json:"name"`
	Link            string `json:"link"`
	IsVerified      bool   `json:"isVerified"`
}

// Linked reports whether the platform returned an external id.
func (p SocialProfile) Linked() bool {
	return p.SocialNetworkID != ""
}

// ProjectContact is a name/url pair; see MainSocials for the fixed subset.
type ProjectContact struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url"`
}

type PersonalInfo struct {
	FullName      string `json:"fullName"`
	WalletAddress string `json:"walletAddress"`
	Email         string `json:"email"`
}

type ProjectRegistry struct {
	IsNonProfitOrganization bool   `json:"isNonProfitOrganization"`
	OrganizationCountry     string `json:"organizationCountry"`
	OrganizationWebsite     string `json:"organizationWebsite"`
	OrganizationDescription string `json:"organizationDescription"`
	OrganizationName        string `json:"organizationName"`
}

type RelatedAddress struct {
	Title     string `json:"title"`
	Address   string `json:"address"`
	NetworkID int    `json:"networkId"`
}

type ManagingFunds struct {
	Description      string           `json:"description"`
	RelatedAddresses []RelatedAddress `json:"relatedAddresses"`
}

type Milestones struct {
	FoundationDate           string   `json:"foundationDate"`
	Mission                  string   `json:"mission"`
	AchievedMilestones       string   `json:"achievedMilestones"`
	AchievedMilestonesProofs []string `json:"achievedMilestonesProofs"`
}

// Record is the session-scoped copy of a project verification form. The
// remote service owns it; every field here is replaced by the server's copy
// after a successful write.
type Record struct {
	ID              string           `json:"id" validate:"required"`
	Status          Status           `json:"status" validate:"required,oneof=draft submitted verified rejected"`
	LastStep        StepName         `json:"lastStep"`
	EmailConfirmed  bool             `json:"emailConfirmed"`
	Email           string           `json:"email"`
	PersonalInfo    *PersonalInfo    `json:"personalInfo,omitempty"`
	SocialProfiles  []SocialProfile  `json:"socialProfiles" validate:"dive"`
	ProjectRegistry *ProjectRegistry `json:"projectRegistry,omitempty"`
	ProjectContacts []ProjectContact `json:"projectContacts" validate:"dive"`
	ManagingFunds   *ManagingFunds   `json:"managingFunds,omitempty"`
	Milestones      *Milestones      `json:"milestones,omitempty"`
	IsTermsAccepted bool             `json:"isTermAndConditionsAccepted"`
}

// IsDraft reports whether the wizard may edit the record.
func (r *Record) IsDraft() bool {
	return r != nil && r.Status == StatusDraft
}

// Profile returns the social profile for platform, if any.
func (r *Record) Profile(platform string) (SocialProfile, bool) {
	if r == nil {
		return SocialProfile{}, false
	}
	for _, p := range r.SocialProfiles {
		if strings.EqualFold(p.SocialNetwork, platform) {
			return p, true
		}
	}
	return SocialProfile{}, false
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.PersonalInfo != nil {
		pi := *r.PersonalInfo
		out.PersonalInfo = &pi
	}
	if r.ProjectRegistry != nil {
		pr := *r.ProjectRegistry
		out.ProjectRegistry = &pr
	}
	if r.ManagingFunds != nil {
		mf := *r.ManagingFunds
		mf.RelatedAddresses = append([]RelatedAddress(nil), r.ManagingFunds.RelatedAddresses...)
		out.ManagingFunds = &mf
	}
	if r.Milestones != nil {
		ms := *r.Milestones
		ms.AchievedMilestonesProofs = append([]string(nil), r.Milestones.AchievedMilestonesProofs...)
		out.Milestones = &ms
	}
	out.SocialProfiles = append([]SocialProfile(nil), r.SocialProfiles...)
	out.ProjectContacts = append([]ProjectContact(nil), r.ProjectContacts...)
	return &out
}

var statusMachine = workflows.NewStateMachine(map[string][]string{
	string(StatusDraft):     {string(StatusSubmitted)},
	string(StatusSubmitted): {string(StatusVerified), string(StatusRejected), string(StatusDraft)},
	string(StatusVerified):  {},
	string(StatusRejected):  {string(StatusDraft)},
})

// ValidateRecord checks a remote payload before it is merged into local
// state. prev may be nil for a first fetch.
func ValidateRecord(prev, next *Record) error {
	if next == nil {
		return fmt.Errorf("empty verification payload")
	}
	if err := structValidator().Struct(next); err != nil {
		return fmt.Errorf("malformed verification payload: %w", err)
	}
	if prev != nil && prev.ID != next.ID {
		return fmt.Errorf("verification id changed from %s to %s", prev.ID, next.ID)
	}
	if prev != nil && prev.Status != next.Status &&
		!statusMachine.CanTransition(string(prev.Status), string(next.Status)) {
		return fmt.Errorf("invalid status transition from %s to %s", prev.Status, next.Status)
	}
	return nil
}

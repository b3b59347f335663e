package wizard

import (
	"github.com/gin-gonic/gin"

	"project-verification/portal-backend/internal/verification"
)

// viewRenderer turns a step view into its JSON body
type viewRenderer struct {
	out gin.H
}

func renderView(v verification.View) gin.H {
	if v == nil {
		return nil
	}
	r := &viewRenderer{}
	v.Accept(r)
	r.out["step"] = v.Step()
	return r.out
}

func (r *viewRenderer) VisitBeforeStart(v verification.BeforeStartView) {
	r.out = gin.H{"kind": "beforeStart", "hasRecord": v.HasRecord}
}

func (r *viewRenderer) VisitPersonalInfo(v verification.PersonalInfoView) {
	r.out = gin.H{
		"kind":           "personalInfo",
		"readOnly":       v.ReadOnly,
		"email":          v.Email,
		"emailConfirmed": v.EmailConfirmed,
		"personalInfo":   v.Info,
	}
}

func (r *viewRenderer) VisitSocialProfiles(v verification.SocialProfilesView) {
	r.out = gin.H{
		"kind":     "socialProfiles",
		"readOnly": v.ReadOnly,
		"discord":  v.Discord,
		"linkedin": v.LinkedIn,
	}
}

func (r *viewRenderer) VisitProjectRegistry(v verification.ProjectRegistryView) {
	r.out = gin.H{"kind": "projectRegistry", "readOnly": v.ReadOnly, "projectRegistry": v.Registry}
}

func (r *viewRenderer) VisitProjectContacts(v verification.ProjectContactsView) {
	main := v.Main
	if main == nil {
		main = map[string]string{}
	}
	other := v.Other
	if other == nil {
		other = []verification.ProjectContact{}
	}
	r.out = gin.H{"kind": "projectContacts", "readOnly": v.ReadOnly, "main": main, "other": other}
}

func (r *viewRenderer) VisitManagingFunds(v verification.ManagingFundsView) {
	r.out = gin.H{"kind": "managingFunds", "readOnly": v.ReadOnly, "managingFunds": v.Funds}
}

func (r *viewRenderer) VisitMilestones(v verification.MilestonesView) {
	r.out = gin.H{"kind": "milestones", "readOnly": v.ReadOnly, "milestones": v.Milestones}
}

func (r *viewRenderer) VisitTerms(v verification.TermsView) {
	r.out = gin.H{"kind": "terms", "readOnly": v.ReadOnly, "isTermAndConditionsAccepted": v.Accepted}
}

func (r *viewRenderer) VisitDone(v verification.DoneView) {
	r.out = gin.H{"kind": "done", "status": v.Status}
}

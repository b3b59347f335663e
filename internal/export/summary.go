package export

import (
	"fmt"
	"strconv"
	"strings"

	"project-verification/portal-backend/internal/verification"
)

// Format is an export file format
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
)

// ParseFormat accepts pdf, xlsx/excel and csv
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/pdf"
	}
}

// Field is one labelled value of a section
type Field struct {
	Label string
	Value string
}

// Section groups the fields of one wizard step
type Section struct {
	Step   verification.StepName
	Title  string
	Fields []Field
}

// Summarize flattens a verification record into ordered sections
func Summarize(rec *verification.Record) []Section {
	if rec == nil {
		return nil
	}

	sections := []Section{{
		Title: "Application",
		Fields: []Field{
			{"Verification ID", rec.ID},
			{"Status", string(rec.Status)},
			{"Last completed step", string(rec.LastStep)},
		},
	}}

	personal := Section{Step: verification.StepPersonalInfo, Title: "Personal information"}
	personal.Fields = append(personal.Fields,
		Field{"Email", rec.Email},
		Field{"Email confirmed", yesNo(rec.EmailConfirmed)},
	)
	if p := rec.PersonalInfo; p != nil {
		personal.Fields = append(personal.Fields,
			Field{"Full name", p.FullName},
			Field{"Wallet address", p.WalletAddress},
		)
	}
	sections = append(sections, personal)

	socials := Section{Step: verification.StepSocialProfiles, Title: "Social profiles"}
	for _, p := range rec.SocialProfiles {
		value := p.Name
		if p.Link != "" {
			value = strings.TrimSpace(value + " " + p.Link)
		}
		if p.IsVerified {
			value += " (verified)"
		}
		socials.Fields = append(socials.Fields, Field{p.SocialNetwork, value})
	}
	sections = append(sections, socials)

	registry := Section{Step: verification.StepProjectRegistry, Title: "Project registry"}
	if r := rec.ProjectRegistry; r != nil {
		registry.Fields = []Field{
			{"Non-profit organization", yesNo(r.IsNonProfitOrganization)},
			{"Organization name", r.OrganizationName},
			{"Country", r.OrganizationCountry},
			{"Website", r.OrganizationWebsite},
			{"Description", r.OrganizationDescription},
		}
	}
	sections = append(sections, registry)

	contacts := Section{Step: verification.StepProjectContacts, Title: "Project contacts"}
	for _, c := range rec.ProjectContacts {
		contacts.Fields = append(contacts.Fields, Field{c.Name, c.URL})
	}
	sections = append(sections, contacts)

	funds := Section{Step: verification.StepManagingFunds, Title: "Managing funds"}
	if f := rec.ManagingFunds; f != nil {
		funds.Fields = append(funds.Fields, Field{"Description", f.Description})
		for _, a := range f.RelatedAddresses {
			funds.Fields = append(funds.Fields, Field{a.Title, a.Address + " (network " + strconv.Itoa(a.NetworkID) + ")"})
		}
	}
	sections = append(sections, funds)

	milestones := Section{Step: verification.StepMilestones, Title: "Milestones"}
	if m := rec.Milestones; m != nil {
		milestones.Fields = []Field{
			{"Foundation date", m.FoundationDate},
			{"Mission", m.Mission},
			{"Achieved milestones", m.AchievedMilestones},
		}
		for i, proof := range m.AchievedMilestonesProofs {
			milestones.Fields = append(milestones.Fields, Field{fmt.Sprintf("Proof %d", i+1), proof})
		}
	}
	sections = append(sections, milestones)

	sections = append(sections, Section{
		Step:   verification.StepTermAndCondition,
		Title:  "Terms and conditions",
		Fields: []Field{{"Accepted", yesNo(rec.IsTermsAccepted)}},
	})

	return sections
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

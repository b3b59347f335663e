package verification

// StepName is the key the verification service persists as lastStep.
type StepName string

const (
	StepBeforeStart      StepName = "BEFORE_START"
	StepPersonalInfo     StepName = "PERSONAL_INFO"
	StepSocialProfiles   StepName = "SOCIAL_PROFILES"
	StepProjectRegistry  StepName = "PROJECT_REGISTRY"
	StepProjectContacts  StepName = "PROJECT_CONTACTS"
	StepManagingFunds    StepName = "MANAGING_FUNDS"
	StepMilestones       StepName = "MILESTONES"
	StepTermAndCondition StepName = "TERM_AND_CONDITION"
	StepSubmit           StepName = "SUBMIT"
)

// stepTable is ordered; a step's position is its index.
var stepTable = [...]StepName{
	StepBeforeStart,
	StepPersonalInfo,
	StepSocialProfiles,
	StepProjectRegistry,
	StepProjectContacts,
	StepManagingFunds,
	StepMilestones,
	StepTermAndCondition,
	StepSubmit,
}

// LastIndex is the terminal step index.
const LastIndex = len(stepTable) - 1

// IndexOf returns the position of name in the step table.
func IndexOf(name StepName) (int, bool) {
	for i, s := range stepTable {
		if s == name {
			return i, true
		}
	}
	return -1, false
}

// StepAt returns the step name at index.
func StepAt(index int) (StepName, bool) {
	if index < 0 || index > LastIndex {
		return "", false
	}
	return stepTable[index], true
}

// Steps returns a copy of the ordered step table.
func Steps() []StepName {
	out := make([]StepName, len(stepTable))
	copy(out, stepTable[:])
	return out
}

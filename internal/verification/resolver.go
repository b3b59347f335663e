package verification

import "errors"

// FetchOutcome is the result of loading a verification form.
type FetchOutcome struct {
	Record *Record
	Err    error
}

// unknownStepIndex is where a record resumes when its lastStep is empty or
// not in the step table: the first step that edits an existing record.
const unknownStepIndex = 1

// Resolve computes the initial step for a fetch outcome. ok is false when no
// step can be derived and the caller should stay in its loading/error state.
func Resolve(out FetchOutcome) (index int, ok bool) {
	switch {
	case errors.Is(out.Err, ErrNotFound):
		return 0, true
	case out.Err != nil, out.Record == nil:
		return 0, false
	case !out.Record.EmailConfirmed:
		return 1, true
	}

	i, found := IndexOf(out.Record.LastStep)
	if !found {
		return unknownStepIndex, true
	}
	next := i + 1
	if next > LastIndex {
		next = LastIndex
	}
	return next, true
}

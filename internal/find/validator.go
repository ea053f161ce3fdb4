package find

// Validator gets the final say on every candidate match. Rejected
// candidates are skipped and the search resumes one character further on.
type Validator interface {
	Validate(fragment FragmentID, text string, offset, length int) bool
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(fragment FragmentID, text string, offset, length int) bool

// Validate calls f.
func (f ValidatorFunc) Validate(fragment FragmentID, text string, offset, length int) bool {
	return f(fragment, text, offset, length)
}

// Position is a location in the caller's document.
type Position struct {
	Fragment FragmentID
	Offset   int
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Fragment != q.Fragment {
		return p.Fragment < q.Fragment
	}
	return p.Offset < q.Offset
}

// SelectionValidator accepts candidates lying entirely within [Start, End].
// Fragments are ordered by their identifiers.
type SelectionValidator struct {
	Start Position
	End   Position
}

// Validate implements Validator.
func (v SelectionValidator) Validate(fragment FragmentID, _ string, offset, length int) bool {
	from := Position{Fragment: fragment, Offset: offset}
	to := Position{Fragment: fragment, Offset: offset + length}
	return !from.Before(v.Start) && !v.End.Before(to)
}

// AllOf combines validators; a candidate must satisfy each of them.
func AllOf(validators ...Validator) Validator {
	return ValidatorFunc(func(fragment FragmentID, text string, offset, length int) bool {
		for _, v := range validators {
			if v != nil && !v.Validate(fragment, text, offset, length) {
				return false
			}
		}
		return true
	})
}

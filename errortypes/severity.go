package errortypes

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal represents a fatal error which aborts the current operation.
	SeverityFatal

	// SeverityWarning represents a non-fatal error where invalid or ambiguous
	// data was ignored and processing continued.
	SeverityWarning
)

// isFatal treats errors without a severity as fatal.
func isFatal(err error) bool {
	s, ok := err.(Coder)
	return !ok || s.Severity() == SeverityFatal
}

func IsWarning(err error) bool {
	s, ok := err.(Coder)
	return ok && s.Severity() == SeverityWarning
}

// FatalOnly keeps the errors that are not warnings.
func FatalOnly(errs []error) []error {
	var fatal []error
	for _, err := range errs {
		if isFatal(err) {
			fatal = append(fatal, err)
		}
	}
	return fatal
}

// WarningOnly keeps the errors labeled SeverityWarning.
func WarningOnly(errs []error) []error {
	var warnings []error
	for _, err := range errs {
		if IsWarning(err) {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

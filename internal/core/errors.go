package core

import (
	"fmt"
	"strings"

	"skyops/pkg/domain"
)

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ResolutionError reports an unknown or ambiguous entity reference. Planning
// aborts before any mutating step when one is raised. Candidates carries the
// IDs of close name matches so the caller can disambiguate instead of the
// core guessing.
type ResolutionError struct {
	Entity     EntityType
	Ref        string
	Candidates []string
}

func (e ResolutionError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("%s reference %q is ambiguous (candidates: %s)", e.Entity, e.Ref, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("%s reference %q not found", e.Entity, e.Ref)
}

// Ambiguous reports whether the reference matched more than one record.
func (e ResolutionError) Ambiguous() bool { return len(e.Candidates) > 1 }

// ValidationBlockedError is returned when a binding fails one or more blocking
// rules. It carries the full issue report plus ranked alternatives; the caller
// may retry with a different binding.
type ValidationBlockedError struct {
	Report      domain.Result
	Suggestions []Suggestion
}

func (e ValidationBlockedError) Error() string {
	return fmt.Sprintf("binding blocked by %d validation issues", len(e.Report.Blocking()))
}

// PersistenceError reports a failed store read or write after successful
// validation and execution. The mutation is not committed; the caller may
// retry the whole request. Invariant conflicts detected at commit time are
// not persistence failures and surface as domain.RuleViolationError instead.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

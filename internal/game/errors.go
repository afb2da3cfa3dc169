package game

import (
	"errors"
	"fmt"
)

// Error represents a fatal condition detected while deriving or solving the game.
//
// Errors include:
//   - Configuration: invalid power/structure parameters, or a status-quo or
//     breakout committee that is not exactly {proposer}
//   - Approval committee: the committee size is not supported by the algorithm
//   - Numerical inconsistency: a post-condition (row sums, probability bounds,
//     solve residual) does not hold
//
// Equilibrium violations are not errors; they are reported by the verifier.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Transition identifies the offending (proposer, current, next) triple, if any.
	Transition *TransitionKey

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes game errors.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates invalid inputs or an inconsistent strategy table.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeApprovalCommittee indicates a committee the selected algorithm cannot handle.
	ErrCodeApprovalCommittee ErrorCode = "APPROVAL_COMMITTEE"

	// ErrCodeNumerical indicates a violated numerical post-condition.
	ErrCodeNumerical ErrorCode = "NUMERICAL_INCONSISTENCY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Transition != nil {
		return fmt.Sprintf("%s: %s (proposer=%s, from=%s, to=%s)",
			e.Code, e.Message, e.Transition.Proposer, e.Transition.Current, e.Transition.Next)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigurationError creates an Error for invalid configuration.
func NewConfigurationError(message string) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: message}
}

// NewCommitteeMismatchError reports a status-quo or breakout transition whose
// committee is not exactly {proposer}.
func NewCommitteeMismatchError(key TransitionKey, committee []Player) *Error {
	names := make([]string, len(committee))
	for i, p := range committee {
		names[i] = string(p)
	}
	return &Error{
		Code:       ErrCodeConfiguration,
		Message:    fmt.Sprintf("unilateral transition must have committee {%s}, got %v", key.Proposer, names),
		Transition: &key,
	}
}

// NewApprovalCommitteeError reports a transition the approval algorithm could not handle.
func NewApprovalCommitteeError(key TransitionKey, size int, reason string) *Error {
	return &Error{
		Code:       ErrCodeApprovalCommittee,
		Message:    fmt.Sprintf("transition could not be handled: %s", reason),
		Transition: &key,
		Details: map[string]string{
			"committee_size": fmt.Sprintf("%d", size),
		},
	}
}

// NewNumericalError reports a violated numerical post-condition.
func NewNumericalError(message string, details map[string]string) *Error {
	return &Error{Code: ErrCodeNumerical, Message: message, Details: details}
}

// IsConfigurationError returns true if err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsApprovalCommitteeError returns true if err is an approval committee error.
func IsApprovalCommitteeError(err error) bool {
	return hasCode(err, ErrCodeApprovalCommittee)
}

// IsNumericalInconsistency returns true if err is a numerical inconsistency.
func IsNumericalInconsistency(err error) bool {
	return hasCode(err, ErrCodeNumerical)
}

func hasCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

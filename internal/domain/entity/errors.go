package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a claim or commit collides with an
	// overlapping claim or committed booking. Callers may retry with fresh
	// availability.
	ErrConflict = errors.New("time slot conflict")

	// ErrPolicyViolation is matched by every *PolicyViolation.
	ErrPolicyViolation = errors.New("booking policy violation")

	// ErrInvalidStateTransition is matched by every *InvalidStateTransition.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrBookingNotFound  = errors.New("booking not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrProviderNotFound = errors.New("provider not found")
	ErrClaimExpired     = errors.New("reservation claim expired")
	ErrClaimMismatch    = errors.New("reservation claim does not cover booking slot")
)

// ValidationError is returned by value-object factories when the input is
// malformed. No partially built value is ever returned alongside it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PolicyRule names the specific rule a request violated.
type PolicyRule string

const (
	RuleMinAdvance           PolicyRule = "min_advance"
	RuleMaxAdvance           PolicyRule = "max_advance"
	RuleRescheduleDisabled   PolicyRule = "reschedule_disabled"
	RuleRescheduleWindow     PolicyRule = "reschedule_window"
	RuleRescheduleLimit      PolicyRule = "reschedule_limit"
	RuleOutsideBusinessHours PolicyRule = "outside_business_hours"
	RuleSlotNotBookable      PolicyRule = "slot_not_bookable"
	RuleSlotNotEnded         PolicyRule = "slot_not_ended"
	RulePaymentState         PolicyRule = "payment_state"
)

// PolicyViolation is an expected, user-facing outcome.
type PolicyViolation struct {
	Rule    PolicyRule
	Message string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("policy violation (%s): %s", e.Rule, e.Message)
}

func (e *PolicyViolation) Is(target error) bool {
	return target == ErrPolicyViolation
}

// NewPolicyViolation builds a PolicyViolation for rule.
func NewPolicyViolation(rule PolicyRule, format string, args ...interface{}) error {
	return &PolicyViolation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// InvalidStateTransition reports an edge that the booking lifecycle does not
// define. It indicates an integration error rather than a user mistake.
type InvalidStateTransition struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

func (e *InvalidStateTransition) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

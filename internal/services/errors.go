package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/errors"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Session specific errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAccessDenied = errors.New("access denied to session")
	ErrSessionSubmitted    = errors.New("session already submitted")
	ErrNothingToSave       = errors.New("session has no answers to save")
	ErrMockNotInTask       = errors.New("mock does not belong to task")
	ErrMockRequired        = errors.New("task has no mock to start")

	// Relay specific errors
	ErrRelayNotFound = errors.New("no live relay for channel")
	ErrUnknownUpload = errors.New("unknown upload kind")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// UnresolvedAnswersError blocks a submission that would silently drop answers.
type UnresolvedAnswersError struct {
	SessionID string `json:"session_id"`
	Numbers   []int  `json:"numbers"`
}

func (e *UnresolvedAnswersError) Error() string {
	parts := make([]string, len(e.Numbers))
	for i, n := range e.Numbers {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("answers for questions %s cannot be matched to question ids", strings.Join(parts, ", "))
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrRelayNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrSessionAccessDenied)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrMockNotInTask) ||
		errors.Is(err, ErrMockRequired) ||
		errors.Is(err, ErrUnknownUpload) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsUnresolved checks if a submission was blocked by unmatched answers
func IsUnresolved(err error) bool {
	var ue *UnresolvedAnswersError
	return errors.As(err, &ue)
}

// IsConflict checks if error represents a state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionSubmitted) ||
		errors.Is(err, session.ErrAlreadySubmitted) ||
		errors.Is(err, ErrNothingToSave) ||
		errors.Is(err, session.ErrNothingToSave) ||
		IsUnresolved(err)
}

// translateStateError maps session package errors onto service sentinels.
func translateStateError(err error) error {
	switch {
	case errors.Is(err, session.ErrAlreadySubmitted):
		return ErrSessionSubmitted
	case errors.Is(err, session.ErrNothingToSave):
		return ErrNothingToSave
	}
	return err
}

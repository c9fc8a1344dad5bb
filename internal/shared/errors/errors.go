// Package errors provides application-level error types and utilities.
// It defines common error types like validation, not found, conflict, and
// the quota-ledger specific errors (insufficient quota, invalid
// relationship, inactive campaign, aborted transaction).
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation_error"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeConflict            ErrorType = "conflict"
	ErrorTypeUnauthorized        ErrorType = "unauthorized"
	ErrorTypeForbidden           ErrorType = "forbidden"
	ErrorTypeInternal            ErrorType = "internal_error"
	ErrorTypeBadRequest          ErrorType = "bad_request"
	ErrorTypeInsufficientQuota   ErrorType = "insufficient_quota"
	ErrorTypeInvalidRelationship ErrorType = "invalid_relationship"
	ErrorTypeCampaignInactive    ErrorType = "campaign_inactive"
	ErrorTypeTransactionAborted  ErrorType = "transaction_aborted"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newAppError(errType ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details...)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details...)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details...)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeBadRequest, http.StatusBadRequest, message, details...)
}

// NewInsufficientQuotaError indicates an operation would overdraw a ledger
// entry's available quota. This is an expected steady-state outcome, not a
// system failure.
func NewInsufficientQuotaError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInsufficientQuota, http.StatusUnprocessableEntity, message, details...)
}

// NewInvalidRelationshipError indicates a partner-tree structure violation,
// e.g. allocating to a partner that is not a direct child.
func NewInvalidRelationshipError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInvalidRelationship, http.StatusUnprocessableEntity, message, details...)
}

// NewCampaignInactiveError indicates the provenance campaign is not usable.
func NewCampaignInactiveError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeCampaignInactive, http.StatusConflict, message, details...)
}

// NewTransactionAbortedError indicates storage-layer contention or timeout.
// The whole operation is safe to retry since no partial effect persists.
func NewTransactionAbortedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeTransactionAborted, http.StatusConflict, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsInsufficientQuotaError checks if the error is an insufficient quota error
func IsInsufficientQuotaError(err error) bool {
	return isType(err, ErrorTypeInsufficientQuota)
}

// IsInvalidRelationshipError checks if the error is a tree-structure violation
func IsInvalidRelationshipError(err error) bool {
	return isType(err, ErrorTypeInvalidRelationship)
}

// IsCampaignInactiveError checks if the error is a campaign inactive error
func IsCampaignInactiveError(err error) bool {
	return isType(err, ErrorTypeCampaignInactive)
}

// IsTransactionAbortedError checks if the error is a transaction aborted error
func IsTransactionAbortedError(err error) bool {
	return isType(err, ErrorTypeTransactionAborted)
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// MySQL duplicate entry error
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// PostgreSQL unique violation
	if strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "violates unique constraint") {
		return true
	}
	// SQLite unique violation
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	return false
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// ErrCodeInvalidCredential is the WeChat platform return code for an
// invalid AppSecret or an invalid / expired access_token.
// Reference: https://mp.weixin.qq.com/wiki?t=resource/res_main&id=mp1433747234
const ErrCodeInvalidCredential = 40001

// APIError represents a non-zero errcode returned by the WeChat platform
type APIError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.ErrCode, e.ErrMsg)
}

func (e *APIError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *APIError) Code() string {
	return "WECHAT_API_ERROR"
}

// NewAPIError creates a new APIError
func NewAPIError(errcode int, errmsg string) *APIError {
	return &APIError{ErrCode: errcode, ErrMsg: errmsg}
}

// CredentialError is an APIError caused by an invalid or expired
// access_token. It is kept as a distinct type so the request layer can
// force a token refresh and retry.
type CredentialError struct {
	APIError
}

func (e *CredentialError) Code() string {
	return "ACCESS_TOKEN_INVALID"
}

// NewCredentialError creates a new CredentialError
func NewCredentialError(errcode int, errmsg string) *CredentialError {
	return &CredentialError{APIError: APIError{ErrCode: errcode, ErrMsg: errmsg}}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnauthorizedError represents authentication failures on our own surface
// (e.g. a forged or expired OAuth state)
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsAPIError checks if an error is an APIError (including CredentialError)
func IsAPIError(err error) bool {
	var apiErr *APIError
	var credErr *CredentialError
	return errors.As(err, &apiErr) || errors.As(err, &credErr)
}

// IsCredentialInvalid checks if an error is a CredentialError
func IsCredentialInvalid(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
}

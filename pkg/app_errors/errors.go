package apperrors

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrVenueNotFound       = errors.New("venue not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
	ErrNotTicketOwner      = errors.New("ticket does not belong to user")
	ErrEventLocked         = errors.New("cancelled events cannot be edited")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrTicketCodeConflict  = errors.New("ticket code already in use")
	ErrCacheMiss           = errors.New("cache miss")
	ErrInternalServerError = errors.New("internal server error")
)

// ValidationError 欄位驗證錯誤，Fields 為 欄位 -> 訊息
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation 回傳 err 中的 ValidationError（若有）
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

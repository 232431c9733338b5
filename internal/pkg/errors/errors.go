package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	RetryAfter time.Duration          `json:"-"`
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap отдаёт исходную причину для errors.Is/As
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is сравнивает по коду, чтобы копии из WithDetails/Wrap совпадали с шаблоном
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithDetails возвращает копию ошибки с деталями; шаблоны из codes.go не меняются
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap возвращает копию ошибки с причиной
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

// FieldViolation - нарушение ограничения одного параметра запроса
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError агрегирует все нарушения запроса в одну ошибку
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields - список полей с нарушениями в порядке проверки
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// JoinValidation сводит нарушения нескольких проверок в одну ValidationError.
// Ошибка другого типа возвращается как есть.
func JoinValidation(errs ...error) error {
	var joined []FieldViolation
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr *ValidationError
		if !stderrors.As(err, &verr) {
			return err
		}
		joined = append(joined, verr.Violations...)
	}
	if len(joined) == 0 {
		return nil
	}
	return &ValidationError{Violations: joined}
}

// AppError переводит нарушения в ответ 400 с деталями по полям
func (e *ValidationError) AppError() *AppError {
	return ErrValidationFailed.WithDetails(map[string]interface{}{
		"fields": e.Violations,
	})
}

// BackendUnavailable - отказ поискового бэкенда после повтора или по таймауту
func BackendUnavailable(cause error) *AppError {
	return ErrBackendUnavailable.Wrap(cause)
}

// WithRetryAfter возвращает копию ошибки с указанной подсказкой Retry-After
func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	cp := *e
	cp.RetryAfter = d
	return &cp
}

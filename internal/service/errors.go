package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation - ошибка, которую может исправить клиент (400)
	ErrValidation = errors.New("validation failed")
	// ErrNotFound - неизвестный id отчёта, код отчёта или id резервного изображения (404)
	ErrNotFound = errors.New("not found")
	// ErrUnresolvedLocation - почтовый индекс не найден ни геокодером, ни регуляркой
	ErrUnresolvedLocation = NewValidationError("Could not resolve a postal code from the location")
	// ErrStorageUnavailable - не сработали ни объектное хранилище, ни резервная коллекция
	ErrStorageUnavailable = errors.New("image storage unavailable")
)

// ValidationError несёт сообщение для пользователя и разворачивается в ErrValidation
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func missingFieldsError(fields []string) *ValidationError {
	return NewValidationError("Missing required fields: %s", strings.Join(fields, ", "))
}

package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNoticeNotFound      = errors.New("notice not found")
	ErrInvalidStatus       = errors.New("invalid notice status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidInstallments = errors.New("installments must be positive")
	ErrNoticeAlreadyPaid   = errors.New("notice already paid")
	ErrNoticeNotPaid       = errors.New("notice is not paid")
	ErrEmptyNote           = errors.New("empty note")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
	ErrMessagingDisabled   = errors.New("messaging not configured")
)

// OperationError is a store failure carrying the message shown to staff.
type OperationError struct {
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

func storeError(message string, err error) error {
	return &OperationError{Message: message, Err: err}
}

var sentinelMessages = []struct {
	err     error
	status  int
	message string
}{
	{ErrNotAuthenticated, http.StatusUnauthorized, "Usuario no autenticado"},
	{ErrNoticeNotFound, http.StatusNotFound, "Aviso no encontrado"},
	{ErrNotFound, http.StatusNotFound, "Registro no encontrado"},
	{ErrInvalidStatus, http.StatusBadRequest, "Estado de aviso inválido"},
	{ErrInvalidTransition, http.StatusBadRequest, "Cambio de estado no permitido"},
	{ErrInvalidInstallments, http.StatusBadRequest, "La cantidad de cuotas debe ser mayor a cero"},
	{ErrNoticeAlreadyPaid, http.StatusConflict, "El aviso ya fue registrado como pagado"},
	{ErrNoticeNotPaid, http.StatusConflict, "El aviso no está pagado"},
	{ErrEmptyNote, http.StatusBadRequest, "La nota no puede estar vacía"},
	{ErrDuplicate, http.StatusConflict, "El registro ya existe"},
	{ErrInvalidInput, http.StatusBadRequest, "Datos inválidos"},
	{ErrMessagingDisabled, http.StatusServiceUnavailable, "El envío de mensajes no está configurado"},
}

// Message returns the human-readable Spanish message for err.
func Message(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.message
		}
	}
	return "Error inesperado"
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func invalidInput(message string) error {
	return &OperationError{Message: message, Err: ErrInvalidInput}
}

// ValidationError lists form errors keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

package cargo

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the cargo service.
var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrDuplicateBiltyNumber   = errors.New("duplicate bilty number")
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")
	ErrSequenceExhausted      = errors.New("sequence allocation retries exhausted")
	ErrInvalidBiltyNumber     = errors.New("invalid bilty number")
	ErrInvalidInvoiceNumber   = errors.New("invalid invoice number")
	ErrInvalidInvoiceID       = errors.New("invalid invoice id")
	ErrInvalidPartyName       = errors.New("invalid party name")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidEntryAmount     = errors.New("invalid entry amount")
	ErrMissingEntryAmount     = errors.New("debit or credit is required")
	ErrInvalidBooking         = errors.New("invalid booking")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidPostingMode     = errors.New("invalid posting mode")
	ErrInvalidInvoiceStatus   = errors.New("invalid invoice status")
	ErrUnknownInvoice         = errors.New("unknown invoice")
	ErrInvalidServiceConfig   = errors.New("invalid service config")
)

var validationErrors = []error{
	ErrInvalidBiltyNumber,
	ErrInvalidInvoiceNumber,
	ErrInvalidInvoiceID,
	ErrInvalidPartyName,
	ErrInvalidAmount,
	ErrInvalidEntryAmount,
	ErrMissingEntryAmount,
	ErrInvalidBooking,
	ErrInvalidDate,
	ErrInvalidPostingMode,
	ErrInvalidInvoiceStatus,
	ErrUnknownInvoice,
}

// IsValidationError reports whether err was caused by caller-supplied input.
func IsValidationError(err error) bool {
	for _, candidate := range validationErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// IsDuplicateError reports whether err is a uniqueness conflict on a numbered record.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateBiltyNumber) || errors.Is(err, ErrDuplicateInvoiceNumber)
}

// IsNotFoundError reports whether err means the requested record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrInvoiceNotFound)
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}

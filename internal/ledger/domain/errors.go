package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports a request the ledger refused before writing
// anything. Two ValidationErrors match under errors.Is when their codes are
// equal, so callers can test against the sentinels below.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

// WithMessagef copies the sentinel's field and code with a specific message.
func (e *ValidationError) WithMessagef(format string, args ...any) *ValidationError {
	return &ValidationError{Field: e.Field, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidPrice     = &ValidationError{Field: "price_per_month", Code: "invalid_price", Message: "monthly price must be greater than zero"}
	ErrInvalidDateRange = &ValidationError{Field: "end_date", Code: "invalid_date_range", Message: "end date must not be before start date"}
	ErrInvalidStartDate = &ValidationError{Field: "start_date", Code: "invalid_start_date", Message: "start date is required"}
	ErrInvalidAmount    = &ValidationError{Field: "total_amount", Code: "invalid_amount", Message: "total amount must not be negative"}
	ErrAmountRequired   = &ValidationError{Field: "total_amount", Code: "amount_required", Message: "total amount is required when no end date is given"}
	ErrInvalidStatus    = &ValidationError{Field: "status", Code: "invalid_status", Message: "unknown unit status"}
	ErrUnitNotAvailable = &ValidationError{Field: "unit_id", Code: "unit_not_available", Message: "unit is not available"}
	ErrUnitMismatch     = &ValidationError{Field: "unit_id", Code: "unit_mismatch", Message: "rental does not belong to unit"}
	ErrUnitNotFound     = &ValidationError{Field: "unit_id", Code: "unit_not_found", Message: "unit not found"}
	ErrCustomerNotFound = &ValidationError{Field: "customer_id", Code: "customer_not_found", Message: "customer not found"}
	ErrRentalNotFound   = &ValidationError{Field: "rental_id", Code: "rental_not_found", Message: "rental not found"}
)

// PersistenceError wraps a storage failure with the operation and table it
// happened on. The backend message is kept in Err.
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// InconsistencyError means a multi-step write stopped after some steps had
// already been applied. Completed lists those steps in order; Failed names
// the step that did not apply. Nothing is rolled back.
type InconsistencyError struct {
	Operation string
	Completed []string
	Failed    string
	Err       error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: step %s failed after %s: %v",
		e.Operation, e.Failed, strings.Join(e.Completed, ", "), e.Err)
}

func (e *InconsistencyError) Unwrap() error {
	return e.Err
}

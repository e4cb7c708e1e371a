package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

// conflictMessages are shown to operators as-is.
var conflictMessages = map[error]string{
	buildingdomain.ErrHasUnits:       "building still has units",
	unitdomain.ErrDuplicateNumber:    "unit number already exists in this building",
	unitdomain.ErrHasActiveRentals:   "unit has active rentals",
	unitdomain.ErrHasRentalHistory:   "unit has rental history",
	customerdomain.ErrHasRentals:     "customer has rentals",
	paymentdomain.ErrRentalNotActive: "rental is not active",
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var ledgerErr *ledgerdomain.ValidationError
	if errors.As(err, &ledgerErr) {
		return mapLedgerValidation(ledgerErr)
	}

	var inconsistency *ledgerdomain.InconsistencyError
	if errors.As(err, &inconsistency) {
		return http.StatusConflict, errorPayload{
			Type:    "inconsistent_state",
			Message: inconsistency.Error(),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	}

	var persistence *ledgerdomain.PersistenceError
	if errors.As(err, &persistence) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "persistence_error",
			Message: persistence.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func mapLedgerValidation(err *ledgerdomain.ValidationError) (int, errorPayload) {
	switch {
	case errors.Is(err, ledgerdomain.ErrUnitNotFound),
		errors.Is(err, ledgerdomain.ErrCustomerNotFound),
		errors.Is(err, ledgerdomain.ErrRentalNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, ledgerdomain.ErrUnitNotAvailable),
		errors.Is(err, ledgerdomain.ErrUnitMismatch):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: err.Field, Code: err.Code, Message: err.Error()},
			},
		}
	}
}

// classifyErrorForLog returns the error type and code recorded on the
// request log line.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	var ledgerErr *ledgerdomain.ValidationError
	if errors.As(err, &ledgerErr) {
		return payload.Type, ledgerErr.Code
	}
	var inconsistency *ledgerdomain.InconsistencyError
	if errors.As(err, &inconsistency) {
		return payload.Type, inconsistency.Operation
	}
	if isConflictError(err) || isNotFoundError(err) {
		return payload.Type, err.Error()
	}
	return payload.Type, ""
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	case isBuildingValidationError(err),
		isUnitValidationError(err),
		isCustomerValidationError(err),
		isRentalValidationError(err),
		isPaymentValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	for sentinel := range conflictMessages {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func conflictMessage(err error) string {
	for sentinel, message := range conflictMessages {
		if errors.Is(err, sentinel) {
			return message
		}
	}
	return "conflict"
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, buildingdomain.ErrNotFound),
		errors.Is(err, unitdomain.ErrNotFound),
		errors.Is(err, unitdomain.ErrBuildingNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, rentaldomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrRentalNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, unitdomain.ErrBuildingNotFound):
		return "building not found"
	case errors.Is(err, paymentdomain.ErrRentalNotFound):
		return "rental not found"
	default:
		return "not found"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return "invalid_page_token"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_page_token":
		return "page_token is malformed"
	default:
		return "invalid value"
	}
}

package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error and selects its HTTP status.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindBusinessRule      Kind = "BUSINESS_RULE_VIOLATION"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindValidation        Kind = "VALIDATION"
	KindConflict          Kind = "CONFLICT"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindInternal          Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindNotFound:          http.StatusNotFound,
	KindBusinessRule:      http.StatusBadRequest,
	KindInsufficientStock: http.StatusBadRequest,
	KindValidation:        http.StatusBadRequest,
	KindConflict:          http.StatusConflict,
	KindUnauthorized:      http.StatusUnauthorized,
	KindForbidden:         http.StatusForbidden,
	KindInternal:          http.StatusInternalServerError,
}

// HTTPStatus maps a kind to its response status. Unknown kinds are 500.
func HTTPStatus(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a classified failure surfaced to API callers.
type Error struct {
	kind    Kind
	message string
	details any
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) HTTPStatus() int {
	return HTTPStatus(e.Kind())
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if typed := As(err); typed != nil {
		return typed.kind == kind
	}
	return false
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func BusinessRule(format string, args ...any) *Error {
	return New(KindBusinessRule, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// StockDetails names the product that could not be fulfilled.
type StockDetails struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

// InsufficientStock reports that a tracked product cannot cover a line.
func InsufficientStock(productID int64, productName string, available, requested int) *Error {
	return New(KindInsufficientStock, fmt.Sprintf("insufficient stock for product %s", productName)).
		WithDetails(StockDetails{
			ProductID:   productID,
			ProductName: productName,
			Available:   available,
			Requested:   requested,
		})
}

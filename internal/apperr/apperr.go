// Package apperr defines the domain error taxonomy shared by services and
// the HTTP layer. Handlers never pick status codes for domain failures; they
// return the error and the boundary renders it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimit
	KindDatabase
)

func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is one entry of the envelope's "errors" list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    string // stable identifier for errors.Is, e.g. "insufficient_stock"
	Message string
	Field   string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) Status() int { return e.Kind.Status() }

// Public returns the message safe to show a client.
func (e *Error) Public() string {
	if e.Kind == KindDatabase || e.Kind == KindInternal {
		return "Internal server error"
	}
	return e.Message
}

// WithCode returns a copy carrying code, so sentinel matching keeps working
// while the message names the specific entity.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// Sentinels for errors.Is checks.
var (
	ErrEmptyCart         = &Error{Kind: KindValidation, Code: "empty_cart", Field: "cart", Message: "Cart is empty"}
	ErrInsufficientStock = &Error{Kind: KindValidation, Code: "insufficient_stock", Field: "stock", Message: "Insufficient stock"}
	ErrProductNotFound   = &Error{Kind: KindNotFound, Code: "product_not_found", Field: "product_id", Message: "Product not found"}
	ErrInvalidTransition = &Error{Kind: KindConflict, Code: "invalid_transition", Field: "status", Message: "Invalid status transition"}
	ErrBadCredentials    = &Error{Kind: KindUnauthorized, Code: "bad_credentials", Message: "Invalid email or password"}
)

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Invalid carries a list of field errors from payload validation.
func Invalid(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Message: "Validation failed", Fields: fields}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func RateLimited(format string, args ...any) *Error {
	return &Error{Kind: KindRateLimit, Message: fmt.Sprintf(format, args...)}
}

// Database wraps a storage failure. The cause is kept for logs only.
func Database(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: op, Err: err}
}

// EmptyCart, InsufficientStock and ProductNotFound build the order-flow
// errors with entity-specific messages.
func EmptyCart() *Error { cp := *ErrEmptyCart; return &cp }

func InsufficientStock(productName string, available, requested int) *Error {
	e := Validation("stock", "Insufficient stock for %s: available %d, requested %d", productName, available, requested)
	return e.WithCode(ErrInsufficientStock.Code)
}

func ProductNotFound(id string) *Error {
	e := NotFound("Product with ID %s not found", id)
	e.Field = "product_id"
	return e.WithCode(ErrProductNotFound.Code)
}

// ProductUnavailable is ProductNotFound inside checkout, where a vanished
// product is a problem with the caller's cart rather than a missing route.
func ProductUnavailable(id string) *Error {
	e := Validation("product_id", "Product %s is no longer available", id)
	return e.WithCode(ErrProductNotFound.Code)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf maps any error to an HTTP status.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}

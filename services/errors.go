package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure so controllers can map it to an
// HTTP status without parsing message strings.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindValidation        Kind = "validation"
	KindTransaction       Kind = "transaction"
)

// Error is the tagged outcome returned by the inventory ledger and the
// order/session services. InsufficientStock errors carry the product
// and the shortfall so callers can retry with adjusted input.
type Error struct {
	Kind      Kind
	Message   string
	ProductID uint
	Requested int
	Available int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func insufficientStock(productID uint, requested, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", productID, requested, available),
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

func transactionErr(err error) *Error {
	return &Error{Kind: KindTransaction, Message: "transaction failed", Err: err}
}

// KindOf extracts the error classification; unknown errors are treated
// as transaction failures so no storage internals leak to callers.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransaction
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

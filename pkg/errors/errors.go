package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock the row was modified by another request; reload and retry
var ErrOptimisticLock = errors.New("record was modified by another request, please reload and retry")

// Kind classifies a business error for transport mapping
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindPreconditionFailed
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// BizError a business rule rejection. Two BizErrors match under errors.Is when their codes match,
// so a sentinel can be re-issued with a situation-specific message.
type BizError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *BizError) Error() string { return e.Message }

// Is matches on code
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage copies the error with a specific message
func (e *BizError) WithMessage(msg string) *BizError {
	return &BizError{Kind: e.Kind, Code: e.Code, Message: msg}
}

// Withf copies the error with a formatted message
func (e *BizError) Withf(format string, args ...interface{}) *BizError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

func newBiz(kind Kind, code int, msg string) *BizError {
	return &BizError{Kind: kind, Code: code, Message: msg}
}

// Validation 400
func Validation(code int, msg string) *BizError { return newBiz(KindValidation, code, msg) }

// NotFound 404
func NotFound(code int, msg string) *BizError { return newBiz(KindNotFound, code, msg) }

// Conflict 409
func Conflict(code int, msg string) *BizError { return newBiz(KindConflict, code, msg) }

// PreconditionFailed 412
func PreconditionFailed(code int, msg string) *BizError {
	return newBiz(KindPreconditionFailed, code, msg)
}

// Forbidden 403
func Forbidden(code int, msg string) *BizError { return newBiz(KindForbidden, code, msg) }

// AsBiz extracts a BizError from an error chain
func AsBiz(err error) (*BizError, bool) {
	var biz *BizError
	if errors.As(err, &biz) {
		return biz, true
	}
	return nil, false
}

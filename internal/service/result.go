package service

import "fmt"

// ErrorKind classifies why an operation did not succeed.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindAlreadyResolved ErrorKind = "ALREADY_RESOLVED"
	KindValidation      ErrorKind = "VALIDATION_FAILED"
	KindConflict        ErrorKind = "CONFLICT"
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindInfrastructure  ErrorKind = "INTERNAL_ERROR"
)

// Result is the outcome of a workflow operation. Domain failures are carried
// here with OK=false; infrastructure failures are returned as errors instead.
type Result struct {
	OK      bool
	Kind    ErrorKind
	Message string
}

// Succeeded builds a successful result.
func Succeeded(message string) Result {
	return Result{OK: true, Message: message}
}

// Failed builds a domain failure.
func Failed(kind ErrorKind, format string, args ...any) Result {
	return Result{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// DomainError lets operations that return a value alongside an error report
// a domain failure through the error channel.
type DomainError struct {
	Result Result
}

func (e *DomainError) Error() string {
	return e.Result.Message
}

func domainErr(kind ErrorKind, format string, args ...any) error {
	return &DomainError{Result: Failed(kind, format, args...)}
}

// infraFailure is the generic message reported to callers for infrastructure errors.
func infraFailure(message string) Result {
	return Result{Kind: KindInfrastructure, Message: message}
}

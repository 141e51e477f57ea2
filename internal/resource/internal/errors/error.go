package errors

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
)

var (
	ErrRequestCanceled = errors.New("request canceled")
	ErrItemNotFound    = errors.New("item not found")
	ErrObjectNotFound  = errors.New("object not found")
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrQueueNotFound   = errors.New("queue not found")
	ErrTopicNotFound   = errors.New("topic not found")
)

// Code returns the AWS error code carried by err, or an empty string.
func Code(err error) string {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code()
	}
	return ""
}

// IsCanceled reports whether the request was canceled through its context.
func IsCanceled(err error) bool {
	return Code(err) == request.CanceledErrorCode
}

// markedError matches its sentinel under Is and unwraps to the underlying AWS error,
// so both xerrors and errors see the sentinel and the awserr.Error on one chain.
type markedError struct {
	sentinel error
	cause    error
}

// Mark makes err match sentinel under errors.Is while keeping the AWS error reachable with errors.As.
func Mark(err error, sentinel error) error {
	return &markedError{
		sentinel: sentinel,
		cause:    err,
	}
}

func (e *markedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *markedError) Unwrap() error {
	return e.cause
}

func (e *markedError) Is(target error) bool {
	return target == e.sentinel
}

// MarkCanceled marks err with ErrRequestCanceled if the request was canceled, and returns it unchanged otherwise.
func MarkCanceled(err error) error {
	if IsCanceled(err) {
		return Mark(err, ErrRequestCanceled)
	}
	return err
}

package errorutil

import (
	"fmt"

	"github.com/pkg/errors"
)

// userError is an error whose message is meant to be shown to the person
// running the CLI as is.
type userError struct {
	error
}

// combinedError pairs an internal cause with a user facing message. Error()
// reports both; errors.Is matches either of them and errors.As/Unwrap reach
// the cause.
//
//	err := errorutil.AddUserMessagef(err, "pod %s does not exist", name)
//	...
//	if msg := errorutil.GetUserErrorMessage(err); msg != "" { ... }
type combinedError struct {
	cause     error
	userError *userError
}

type formatted interface {
	error
	Format(s fmt.State, verb rune)
}

func NewUserError(msg string) error {
	return &userError{error: errors.New(msg)}
}

func NewUserErrorf(msg string, args ...any) error {
	return &userError{error: errors.Errorf(msg, args...)}
}

// AddUserMessagef attaches a user facing message to err. Errors that already
// carry one are returned unchanged, so the innermost message wins.
func AddUserMessagef(err error, msg string, args ...any) error {
	if err == nil || HasUserMessage(err) {
		return err
	}
	return &combinedError{cause: err, userError: &userError{error: errors.Errorf(msg, args...)}}
}

// ConvertToUserError shows err's own message to the user.
func ConvertToUserError(err error) error {
	if err == nil {
		return nil
	}
	return AddUserMessagef(err, "%s", err.Error())
}

func HasUserMessage(err error) bool {
	return GetUserErrorMessage(err) != ""
}

// GetUserErrorMessage returns the user facing message carried by err, or "".
func GetUserErrorMessage(err error) string {
	var ce *combinedError
	if errors.As(err, &ce) {
		return ce.userError.Error()
	}
	var ue *userError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return ""
}

func (e *combinedError) Error() string {
	return e.combine().Error()
}

func (e *combinedError) Is(target error) bool {
	return errors.Is(e.cause, target) || errors.Is(e.userError, target)
}

func (e *combinedError) Unwrap() error { return e.cause }

// Cause lets errors.Cause walk through.
func (e *combinedError) Cause() error { return e.cause }

// Format supports %+v the way github.com/pkg/errors does.
func (e *combinedError) Format(s fmt.State, verb rune) {
	e.combine().Format(s, verb)
}

func (e *combinedError) combine() formatted {
	var f formatted
	errors.As(errors.Wrap(e.cause, e.userError.Error()), &f)
	return f
}

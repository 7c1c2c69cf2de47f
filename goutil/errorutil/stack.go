package errorutil

import "github.com/pkg/errors"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// RootStackTrace returns the stack recorded deepest in err's chain, which is
// the one closest to where the failure happened. It returns nil when no error
// in the chain carries a stack. User messages added with AddUserMessagef are
// looked through.
func RootStackTrace(err error) errors.StackTrace {
	var trace errors.StackTrace
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			trace = st.StackTrace()
		}
		err = errors.Unwrap(err)
	}
	return trace
}

package manifest

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError reports a manifest that is malformed or incomplete. It is
// always detected locally, before any request reaches the cluster.
type ValidationError struct {
	Field  string // e.g. "metadata.name"; empty when the whole document is at fault
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid manifest: %s", e.Reason)
	}
	return fmt.Sprintf("invalid manifest: %s %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

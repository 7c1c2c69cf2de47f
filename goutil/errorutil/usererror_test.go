package errorutil

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errNoCluster = errors.New("no cluster")

func TestAddUserMessagef(t *testing.T) {
	err := AddUserMessagef(errNoCluster, "context %q is not reachable", "kind-dev")

	assert.Equal(t, `context "kind-dev" is not reachable`, GetUserErrorMessage(err))
	assert.ErrorIs(t, err, errNoCluster)
	assert.Equal(t, `context "kind-dev" is not reachable: no cluster`, err.Error())
}

func TestInnermostMessageWins(t *testing.T) {
	inner := NewUserError("pod not found")
	assert.Same(t, inner, AddUserMessagef(inner, "something else"))

	wrapped := errors.Wrap(AddUserMessagef(errNoCluster, "first"), "context")
	assert.Equal(t, "first", GetUserErrorMessage(AddUserMessagef(wrapped, "second")))
}

func TestPlainErrorsHaveNoMessage(t *testing.T) {
	assert.Empty(t, GetUserErrorMessage(errNoCluster))
	assert.Empty(t, GetUserErrorMessage(nil))
	assert.False(t, HasUserMessage(fmt.Errorf("wrapped: %w", errNoCluster)))
	assert.NoError(t, AddUserMessagef(nil, "unused"))
}

func TestConvertToUserError(t *testing.T) {
	err := ConvertToUserError(errors.New("timeout must be positive"))
	assert.Equal(t, "timeout must be positive", GetUserErrorMessage(err))
}

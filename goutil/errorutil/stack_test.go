package errorutil

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootStackTraceFindsDeepestStack(t *testing.T) {
	root := errors.New("connection refused")
	wrapped := errors.Wrap(fmt.Errorf("dial: %w", root), "failed to list pods")
	err := AddUserMessagef(wrapped, "cluster is not reachable")

	trace := RootStackTrace(err)
	require.NotNil(t, trace)
	assert.Equal(t, root.(stackTracer).StackTrace(), trace)
}

func TestRootStackTraceWithoutStacks(t *testing.T) {
	assert.Nil(t, RootStackTrace(fmt.Errorf("plain")))
	assert.Nil(t, RootStackTrace(nil))
}

package kubevalidate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation"
)

func TestToIdentifier(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{".foo", "foo"},
		{"   ###  0foo", "0foo"},
		{"foo...", "foo"},
		{"Daniel's pod", "Daniels-pod"},
		{"name::.other", "name.other"},
		{"foo---___...bar", "foo-bar"},
		{" FOObar?Foo.", "FOObar-Foo"},
		{"", ""},
		{".-___-.", ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			assert.Equal(t, testCase.expected, ToIdentifier(testCase.input))
		})
	}
}

func TestToValidName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"sample-pod", "sample-pod"},
		{" FOO___bar?.Foo.", "foo-bar-foo"},
		{"##0f0", "f0"},
		{"nginx:1.14.2", "nginx-1-14-2"},
		{"busybox.io/library/busybox", "busybox-io-library-busybox"},
		{
			"thisisalongstringthatisover63charactersandshouldbetruncatedhereextra",
			"thisisalongstringthatisover63charactersandshouldbetruncatedhere",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			output, err := ToValidName(testCase.input)
			require.NoError(t, err)

			errs := validation.IsDNS1035Label(output)
			assert.Empty(t, errs, "%s is not a valid label", output)
			assert.Equal(t, testCase.expected, output)
		})
	}

	for _, input := range []string{"", "______", "1234"} {
		t.Run("invalid "+input, func(t *testing.T) {
			output, err := ToValidName(input)
			assert.Empty(t, output)
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestToValidNameWithSlug(t *testing.T) {
	slug := KubeSlug()
	slugFn := func() string { return slug }

	output, err := toValidNameWithSlug("sample-pod", slugFn)
	require.NoError(t, err)
	assert.Equal(t, "sample-pod-"+slug, output)

	output, err = toValidNameWithSlug(strings.Repeat("a", 80), slugFn)
	require.NoError(t, err)
	assert.Len(t, output, nameMaxLength)
	assert.True(t, strings.HasSuffix(output, "-"+slug))
}

func TestObjectNameErrors(t *testing.T) {
	assert.Empty(t, ObjectNameErrors("nginx-deployment"))
	assert.Empty(t, ObjectNameErrors("web.v1"))
	assert.NotEmpty(t, ObjectNameErrors("Sample_Pod"))
	assert.NotEmpty(t, ObjectNameErrors(""))

	assert.Empty(t, NamespaceErrors("default"))
	assert.NotEmpty(t, NamespaceErrors("kube.system"))
}

package buildstamp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stamp(t *testing.T, version, tag, commit string) {
	old := []string{VersionNumber, PrereleaseTag, Commit}
	VersionNumber, PrereleaseTag, Commit = version, tag, commit
	t.Cleanup(func() {
		VersionNumber, PrereleaseTag, Commit = old[0], old[1], old[2]
	})
}

func TestVersion(t *testing.T) {
	stamp(t, "0.3.0", "", "379c1d11a9e2")
	assert.Equal(t, "0.3.0", Version())

	stamp(t, "0.3.0", "dev", "379c1d11a9e2")
	assert.Equal(t, "0.3.0-dev+379c1d11", Version())
}

func TestVersionWithoutStamp(t *testing.T) {
	stamp(t, "", "", "")
	assert.NotEmpty(t, Version())
}

func TestPrintVerboseVersion(t *testing.T) {
	stamp(t, "0.3.0", "", "379c1d11")
	var buf bytes.Buffer
	PrintVerboseVersion(&buf)
	assert.Contains(t, buf.String(), "Version:     0.3.0\n")
	assert.Contains(t, buf.String(), "Commit:      379c1d11\n")
}

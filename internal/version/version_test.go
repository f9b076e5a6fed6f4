package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })

	Version = "v1.2.3"
	assert.Contains(t, String(), "sitegen v1.2.3")
	assert.Contains(t, String(), "commit "+GitCommit)
}

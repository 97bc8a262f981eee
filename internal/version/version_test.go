package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "leafdoctor "+Version+" (commit "+GitCommit+", built "+BuildTime+")", String())
	assert.Equal(t, "leafdoctor/"+Version, UserAgent())
}

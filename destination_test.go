package planner

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestDestinationFlip(t *testing.T) {
	assert.Equal(t, Target.Flip(), Host)
	assert.Equal(t, Host.Flip(), Target)
}

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentString(t *testing.T) {
	assert.Equal(t, "pricefeed/v"+Version, AgentString())
}

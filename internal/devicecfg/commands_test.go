package devicecfg

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandAllowed(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"sensorStop", true},
		{"  sensorStart 0  ", true},
		{"frameCfg 0 2 96 0 55.00 1 0", true},
		{"baudRate 1250000", false},
		{"sensorstop", false},
		{"", false},
		{"% comment", false},
	}
	for _, tc := range tests {
		t.Run(tc.cmd, func(t *testing.T) {
			assert.Equal(t, tc.want, commandAllowed(tc.cmd))
		})
	}
}

// Every command of the bundled device config may be resent by hand.
func TestCommandAllowed_BundledConfig(t *testing.T) {
	f, err := os.Open("../../config/AOP_6m_default.cfg")
	require.NoError(t, err)
	defer f.Close()

	lines, err := ParseScript(f)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.True(t, commandAllowed(line), "command %q not allowed", line)
	}
}

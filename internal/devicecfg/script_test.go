package devicecfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `% ***************************************************************
% Created for SDK ver:03.06
% ***************************************************************
sensorStop

flushCfg
dfeDataOutputMode 1
channelCfg 15 7 0
baudRate 1250000
sensorStart`

func TestParseScript(t *testing.T) {
	lines, err := ParseScript(strings.NewReader(sampleScript))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sensorStop\n",
		"flushCfg\n",
		"dfeDataOutputMode 1\n",
		"channelCfg 15 7 0\n",
		"baudRate 1250000\n",
		"sensorStart\n",
	}, lines)
}

func TestParseScript_CRLF(t *testing.T) {
	lines, err := ParseScript(strings.NewReader("sensorStop\r\n\r\n% comment\r\nsensorStart\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"sensorStop\n", "sensorStart\n"}, lines)
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "AOP_6m_default.cfg")
	require.NoError(t, os.WriteFile(path, []byte(sampleScript), 0o644))
	lines, err := LoadScript(path)
	require.NoError(t, err)
	assert.Len(t, lines, 6)

	_, err = LoadScript(filepath.Join(dir, "missing.cfg"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(txt, []byte(sampleScript), 0o644))
	_, err = LoadScript(txt)
	assert.ErrorContains(t, err, ".cfg extension")
}

func TestBaudRateCommand(t *testing.T) {
	tests := []struct {
		line    string
		rate    int
		ok      bool
		wantErr bool
	}{
		{"baudRate 1250000\n", 1250000, true, false},
		{"sensorStart\n", 0, false, false},
		{"\n", 0, false, false},
		{"baudRate\n", 0, true, true},
		{"baudRate fast\n", 0, true, true},
		{"baudRate -5\n", 0, true, true},
	}
	for _, tc := range tests {
		rate, ok, err := baudRateCommand(tc.line)
		assert.Equal(t, tc.rate, rate, tc.line)
		assert.Equal(t, tc.ok, ok, tc.line)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidBaudRate, tc.line)
		} else {
			assert.NoError(t, err, tc.line)
		}
	}
}

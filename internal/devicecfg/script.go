// Package devicecfg uploads chirp configuration scripts to an mmWave
// device over its CLI UART.
package devicecfg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxScriptSize bounds the configuration files LoadScript will read.
const maxScriptSize = 1 << 20

// ParseScript reads a .cfg script, dropping blank lines and comment lines
// starting with '%'. Every returned command ends with a newline.
func ParseScript(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "%") {
			continue
		}
		lines = append(lines, line+"\n")
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return lines, nil
}

// LoadScript reads and parses the .cfg script at path.
func LoadScript(path string) ([]string, error) {
	if ext := filepath.Ext(path); ext != ".cfg" {
		return nil, fmt.Errorf("script file must have .cfg extension, got %q", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script %s: %w", path, err)
	}
	defer f.Close()

	lines, err := ParseScript(io.LimitReader(f, maxScriptSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// baudRateCommand reports whether line is a "baudRate <n>" command and
// returns the requested rate.
func baudRateCommand(line string) (rate int, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "baudRate" {
		return 0, false, nil
	}
	if len(fields) < 2 {
		return 0, true, fmt.Errorf("%w: missing value", ErrInvalidBaudRate)
	}
	rate, err = strconv.Atoi(fields[1])
	if err != nil || rate <= 0 {
		return 0, true, fmt.Errorf("%w: %q", ErrInvalidBaudRate, fields[1])
	}
	return rate, true, nil
}

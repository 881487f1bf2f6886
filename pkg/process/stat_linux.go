//go:build linux

package process

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
)

// startTime returns field 22 of /proc/<pid>/stat, in clock ticks since boot.
func startTime(pid int) (uint64, error) {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}
	return parseStartTime(b)
}

func parseStartTime(stat []byte) (uint64, error) {
	// The second field is the task name in parenthesis. It may itself
	// contain spaces and parenthesis, so split after the last ')'.
	i := bytes.LastIndexByte(stat, ')')
	if i < 0 {
		return 0, fmt.Errorf("malformed stat line")
	}
	fields := bytes.Fields(stat[i+1:])
	// fields[0] is the state, field 3 of the full line.
	const startField = 22 - 3
	if len(fields) <= startField {
		return 0, fmt.Errorf("stat line has %d fields", len(fields)+2)
	}
	return strconv.ParseUint(string(fields[startField]), 10, 64)
}

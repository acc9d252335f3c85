// Package infra implements infrastructure concerns (host process inspection).
package infra

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessChecker inspects host processes using gopsutil. The daemon and the
// status command use it to tell whether the bridge transport (adb) is up -
// the usual reason the device helper cannot reach us.
type ProcessChecker struct{}

// NewProcessChecker creates a process checker.
func NewProcessChecker() *ProcessChecker {
	return &ProcessChecker{}
}

// IsProcessRunning reports whether a process whose name contains name
// (case-insensitive) is running.
func (pc *ProcessChecker) IsProcessRunning(name string) (bool, error) {
	procs, err := process.Processes()
	if err != nil {
		return false, err
	}

	needle := strings.ToLower(name)
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if strings.Contains(strings.ToLower(pname), needle) {
			return true, nil
		}
	}
	return false, nil
}

// Package pidfile guards against two copies of the same long-running
// command operating on one data directory.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Check returns an error when path names a live process. A pidfile left
// behind by a dead process is treated as stale and removed.
func Check(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read pidfile %s: %w", path, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Unparseable contents mean the file is garbage, not a guard.
		return os.Remove(path)
	}

	if processAlive(pid) {
		return fmt.Errorf("process already running with pid %d (pidfile %s)", pid, path)
	}

	// Stale pidfile from a crashed run.
	return os.Remove(path)
}

// Write records the current process id at path.
func Write(path string) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("failed to write pidfile %s: %w", path, err)
	}
	return nil
}

// Remove deletes the pidfile; missing files are not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}

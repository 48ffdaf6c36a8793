//go:build windows

package engine

import (
	"fmt"
	"os"
)

// Windows has no syscall.Flock; the lock file is opened but other
// processes are not excluded.
func lockDataDir(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("engine: open lock file: %w", err)
	}
	return f, nil
}

func unlockDataDir(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}

//go:build !unix && !windows

package instance

import (
	"errors"
	"os"
)

const removeWhileLocked = false

func lockFile(*os.File) error {
	return errors.ErrUnsupported
}

func unlockFile(*os.File) error {
	return nil
}

func isLockHeld(error) bool {
	return false
}

func processAlive(int) bool {
	return true
}

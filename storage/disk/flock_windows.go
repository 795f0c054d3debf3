//go:build windows

package disk

import "os"

// advisory locking of table files is not supported on windows
func lockFile(f *os.File) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}

//go:build !linux && !darwin

package vault

func lockMemory([]byte)   {}
func unlockMemory([]byte) {}
func disableCoreDumps()   {}

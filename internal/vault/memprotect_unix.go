//go:build linux || darwin

package vault

import "syscall"

// lockMemory pins the master key's pages so they are never swapped out.
// Failure is ignored: the process may lack CAP_IPC_LOCK.
func lockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = syscall.Mlock(b)
}

func unlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = syscall.Munlock(b)
}

// disableCoreDumps sets RLIMIT_CORE to 0 so key material never lands in a
// core file.
func disableCoreDumps() {
	_ = syscall.Setrlimit(syscall.RLIMIT_CORE, &syscall.Rlimit{Cur: 0, Max: 0})
}

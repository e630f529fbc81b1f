//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// spawnAttr returns process attributes for worker spawning on Unix systems.
func spawnAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		// Create a new process group so we can kill all children
		Setpgid: true,
		Pgid:    0,
	}
}

// kill forcibly terminates the worker and every process in its group.
func kill(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

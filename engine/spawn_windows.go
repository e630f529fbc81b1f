//go:build windows

package engine

import (
	"os/exec"
	"syscall"
)

// spawnAttr returns process attributes for worker spawning on Windows.
// Windows doesn't support Setpgid/Pgid, so we return nil.
func spawnAttr() *syscall.SysProcAttr {
	return nil
}

// kill forcibly terminates the worker process.
func kill(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

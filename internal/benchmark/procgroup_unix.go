//go:build !windows

package benchmark

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts the worker in its own process group and makes
// context cancellation kill the whole group, so children spawned by a
// wrapper script die with it.
func killGroupOnCancel(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

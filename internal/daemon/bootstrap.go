package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// StartDetached spawns a fresh copy of the current binary running the given
// subcommand, fully detached from the caller's terminal. Used by the start
// command so the shell returns immediately.
func StartDetached(args ...string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(executable, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // new session, no controlling terminal
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}

package infra

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// SelfRelauncher implements domain.Relauncher by re-executing the current
// binary as a detached replacement process.
type SelfRelauncher struct {
	// baseArgs is the subcommand the replacement runs, normally ["run"].
	baseArgs []string
}

// NewSelfRelauncher creates a relauncher that re-runs the given subcommand.
func NewSelfRelauncher(baseArgs ...string) *SelfRelauncher {
	return &SelfRelauncher{baseArgs: baseArgs}
}

// Relaunch spawns the replacement detached from this process; the caller
// exits afterwards.
func (r *SelfRelauncher) Relaunch(extraArgs ...string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}

	args := append(append([]string{}, r.baseArgs...), extraArgs...)
	cmd := exec.Command(executable, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // survive the parent's exit
	}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	return cmd.Start()
}

var _ domain.Relauncher = (*SelfRelauncher)(nil)

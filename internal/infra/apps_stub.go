//go:build !darwin

package infra

import (
	"errors"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// WorkspaceRegistry is the non-darwin placeholder.
type WorkspaceRegistry struct{}

func NewWorkspaceRegistry() *WorkspaceRegistry {
	return &WorkspaceRegistry{}
}

func (w *WorkspaceRegistry) RunningApplications() ([]domain.AppInfo, error) {
	return nil, errors.New("application registry unsupported on this platform")
}

func (w *WorkspaceRegistry) ApplicationForBundleID(string) (domain.AppInfo, bool) {
	return domain.AppInfo{}, false
}

func (w *WorkspaceRegistry) ApplicationForPID(int) (domain.AppInfo, bool) {
	return domain.AppInfo{}, false
}

func (w *WorkspaceRegistry) FrontmostApplication() (domain.AppInfo, bool) {
	return domain.AppInfo{}, false
}

func (w *WorkspaceRegistry) Activate(int) error {
	return errors.New("unsupported platform")
}

func (w *WorkspaceRegistry) Hide(int) error {
	return errors.New("unsupported platform")
}

func (w *WorkspaceRegistry) Unhide(int) error {
	return errors.New("unsupported platform")
}

func (w *WorkspaceRegistry) Launch(string) error {
	return errors.New("unsupported platform")
}

func (w *WorkspaceRegistry) DockPID() int {
	return 0
}

func (w *WorkspaceRegistry) WatchTerminations(func(pid int)) {}

var _ domain.ProcessRegistry = (*WorkspaceRegistry)(nil)

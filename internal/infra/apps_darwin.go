//go:build darwin

package infra

/*
// Definitions live in apps_impl_darwin.go; this file carries the exported
// termination callback, so its preamble holds declarations only.
#include <stdlib.h>

typedef struct {
	int  pid;
	char *bundleID;
	char *name;
	char *bundlePath;
	int  active;
	int  hidden;
} WSAppInfo;

extern int  ws_running_apps(WSAppInfo **out, int *count);
extern void ws_free_apps(WSAppInfo *apps, int count);
extern int  ws_app_for_pid(int pid, WSAppInfo *out);
extern void ws_free_app(WSAppInfo *app);
extern int  ws_frontmost(WSAppInfo *out);
extern int  ws_activate(int pid);
extern int  ws_hide(int pid);
extern int  ws_unhide(int pid);
extern int  ws_launch(const char *path);
extern int  ws_pid_for_bundle(const char *bundleID);
extern void ws_watch_terminations(void);
*/
import "C"

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

const dockBundleID = "com.apple.dock"

var (
	termMu sync.Mutex
	termFn func(pid int)
)

//export goAppTerminated
func goAppTerminated(pid C.int) {
	termMu.Lock()
	fn := termFn
	termMu.Unlock()
	if fn != nil {
		fn(int(pid))
	}
}

// WorkspaceRegistry implements domain.ProcessRegistry over NSWorkspace.
type WorkspaceRegistry struct{}

// NewWorkspaceRegistry creates the application registry adapter.
func NewWorkspaceRegistry() *WorkspaceRegistry {
	return &WorkspaceRegistry{}
}

func appInfoFromC(c *C.WSAppInfo) domain.AppInfo {
	return domain.AppInfo{
		PID:        int(c.pid),
		BundleID:   C.GoString(c.bundleID),
		Name:       C.GoString(c.name),
		BundlePath: C.GoString(c.bundlePath),
		Active:     c.active != 0,
		Hidden:     c.hidden != 0,
	}
}

func (w *WorkspaceRegistry) RunningApplications() ([]domain.AppInfo, error) {
	var apps *C.WSAppInfo
	var count C.int
	if C.ws_running_apps(&apps, &count) != 0 {
		return nil, fmt.Errorf("running application enumeration failed")
	}
	defer C.ws_free_apps(apps, count)

	n := int(count)
	slice := unsafe.Slice(apps, n)
	out := make([]domain.AppInfo, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, appInfoFromC(&slice[i]))
	}
	return out, nil
}

func (w *WorkspaceRegistry) ApplicationForBundleID(bundleID string) (domain.AppInfo, bool) {
	apps, err := w.RunningApplications()
	if err != nil {
		return domain.AppInfo{}, false
	}
	for _, app := range apps {
		if strings.EqualFold(app.BundleID, bundleID) {
			return app, true
		}
	}
	return domain.AppInfo{}, false
}

func (w *WorkspaceRegistry) ApplicationForPID(pid int) (domain.AppInfo, bool) {
	var info C.WSAppInfo
	if C.ws_app_for_pid(C.int(pid), &info) != 0 {
		return domain.AppInfo{}, false
	}
	defer C.ws_free_app(&info)
	return appInfoFromC(&info), true
}

func (w *WorkspaceRegistry) FrontmostApplication() (domain.AppInfo, bool) {
	var info C.WSAppInfo
	if C.ws_frontmost(&info) != 0 {
		return domain.AppInfo{}, false
	}
	defer C.ws_free_app(&info)
	return appInfoFromC(&info), true
}

func (w *WorkspaceRegistry) Activate(pid int) error {
	if C.ws_activate(C.int(pid)) != 0 {
		return fmt.Errorf("activate pid %d failed", pid)
	}
	return nil
}

func (w *WorkspaceRegistry) Hide(pid int) error {
	if C.ws_hide(C.int(pid)) != 0 {
		return fmt.Errorf("hide pid %d failed", pid)
	}
	return nil
}

func (w *WorkspaceRegistry) Unhide(pid int) error {
	if C.ws_unhide(C.int(pid)) != 0 {
		return fmt.Errorf("unhide pid %d failed", pid)
	}
	return nil
}

func (w *WorkspaceRegistry) Launch(bundlePath string) error {
	cPath := C.CString(bundlePath)
	defer C.free(unsafe.Pointer(cPath))
	if C.ws_launch(cPath) != 0 {
		return fmt.Errorf("launch %s failed", bundlePath)
	}
	return nil
}

func (w *WorkspaceRegistry) DockPID() int {
	cID := C.CString(dockBundleID)
	defer C.free(unsafe.Pointer(cID))
	return int(C.ws_pid_for_bundle(cID))
}

func (w *WorkspaceRegistry) WatchTerminations(fn func(pid int)) {
	termMu.Lock()
	first := termFn == nil
	termFn = fn
	termMu.Unlock()
	if first {
		C.ws_watch_terminations()
	}
}

var _ domain.ProcessRegistry = (*WorkspaceRegistry)(nil)

package usecase

// FileManagerBundleID identifies the system file manager, which gets its
// own click behavior (it always runs and owns the desktop window).
const FileManagerBundleID = "com.apple.finder"

// ClickFacts are the observable inputs of click resolution. The decision is
// a deterministic function of these alone.
type ClickFacts struct {
	Active              bool
	IsFileManager       bool
	OnlyLowLevelWindows bool // window-server windows exist, introspection shows none
	TotalWindows        int  // real (non-placeholder) windows
	VisibleWindows      int  // windows passing the visibility predicate
	SingleMinimized     bool // exactly one window and it is minimized
}

// ClickDecision is the action chosen for a primary click on a dock icon.
type ClickDecision int

const (
	// DecisionToggleAppHide toggles the whole-application hidden state.
	DecisionToggleAppHide ClickDecision = iota
	// DecisionFileManager runs the file-manager special case.
	DecisionFileManager
	// DecisionLaunch activates or launches an app with no real windows.
	DecisionLaunch
	// DecisionUnminimizeRaise unminimizes and raises the single window.
	DecisionUnminimizeRaise
	// DecisionSnapshotHide snapshots window state then hides the app.
	DecisionSnapshotHide
	// DecisionRestore unhides, activates, and restores hidden windows.
	DecisionRestore
	// DecisionActivate activates the app without touching windows.
	DecisionActivate
)

func (d ClickDecision) String() string {
	switch d {
	case DecisionToggleAppHide:
		return "toggle_app_hide"
	case DecisionFileManager:
		return "file_manager"
	case DecisionLaunch:
		return "launch"
	case DecisionUnminimizeRaise:
		return "unminimize_raise"
	case DecisionSnapshotHide:
		return "snapshot_hide"
	case DecisionRestore:
		return "restore"
	case DecisionActivate:
		return "activate"
	default:
		return "unknown"
	}
}

// ResolveClick picks the click action. The steps are ordered and the first
// match wins:
//
//  1. only low-level windows        -> toggle whole-app hide
//  2. file manager                  -> special case
//  3. no real windows               -> launch/activate
//  4. single minimized window       -> unminimize and raise
//  5. active with visible windows   -> snapshot and hide
//  6. no visible windows            -> restore
//  7. otherwise                     -> activate
//
// The single-minimized step is terminal: a one-window app that is minimized
// never falls through to the hide or restore paths.
func ResolveClick(f ClickFacts) ClickDecision {
	switch {
	case f.OnlyLowLevelWindows:
		return DecisionToggleAppHide
	case f.IsFileManager:
		return DecisionFileManager
	case f.TotalWindows == 0:
		return DecisionLaunch
	case f.TotalWindows == 1 && f.SingleMinimized:
		return DecisionUnminimizeRaise
	case f.Active && f.VisibleWindows >= 1:
		return DecisionSnapshotHide
	case f.VisibleWindows == 0:
		return DecisionRestore
	default:
		return DecisionActivate
	}
}

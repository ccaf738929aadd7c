//go:build darwin

package infra

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
	int  pid;
	char *bundleID;
	char *name;
	char *bundlePath;
	int  active;
	int  hidden;
} WSAppInfo;

extern void goAppTerminated(int pid);

static char *ws_strdup(NSString *s) {
	if (s == nil) {
		return strdup("");
	}
	return strdup([s UTF8String]);
}

static void ws_fill(WSAppInfo *out, NSRunningApplication *app) {
	out->pid = (int)app.processIdentifier;
	out->bundleID = ws_strdup(app.bundleIdentifier);
	out->name = ws_strdup(app.localizedName);
	out->bundlePath = ws_strdup(app.bundleURL.path);
	out->active = app.active ? 1 : 0;
	out->hidden = app.hidden ? 1 : 0;
}

void ws_free_app(WSAppInfo *app) {
	free(app->bundleID);
	free(app->name);
	free(app->bundlePath);
}

int ws_running_apps(WSAppInfo **out, int *count) {
	@autoreleasepool {
		NSArray<NSRunningApplication *> *apps =
			[NSWorkspace sharedWorkspace].runningApplications;
		int n = (int)apps.count;
		*out = malloc(sizeof(WSAppInfo) * (n > 0 ? n : 1));
		int filled = 0;
		for (NSRunningApplication *app in apps) {
			// Background-only helpers never own dock icons.
			if (app.activationPolicy != NSApplicationActivationPolicyRegular) {
				continue;
			}
			ws_fill(&(*out)[filled], app);
			filled++;
		}
		*count = filled;
		return 0;
	}
}

void ws_free_apps(WSAppInfo *apps, int count) {
	for (int i = 0; i < count; i++) {
		ws_free_app(&apps[i]);
	}
	free(apps);
}

int ws_app_for_pid(int pid, WSAppInfo *out) {
	@autoreleasepool {
		NSRunningApplication *app = [NSRunningApplication
			runningApplicationWithProcessIdentifier:(pid_t)pid];
		if (app == nil) {
			return 1;
		}
		ws_fill(out, app);
		return 0;
	}
}

int ws_frontmost(WSAppInfo *out) {
	@autoreleasepool {
		NSRunningApplication *app =
			[NSWorkspace sharedWorkspace].frontmostApplication;
		if (app == nil) {
			return 1;
		}
		ws_fill(out, app);
		return 0;
	}
}

int ws_activate(int pid) {
	@autoreleasepool {
		NSRunningApplication *app = [NSRunningApplication
			runningApplicationWithProcessIdentifier:(pid_t)pid];
		if (app == nil) {
			return 1;
		}
		return [app activateWithOptions:NSApplicationActivateIgnoringOtherApps] ? 0 : 1;
	}
}

int ws_hide(int pid) {
	@autoreleasepool {
		NSRunningApplication *app = [NSRunningApplication
			runningApplicationWithProcessIdentifier:(pid_t)pid];
		if (app == nil) {
			return 1;
		}
		return [app hide] ? 0 : 1;
	}
}

int ws_unhide(int pid) {
	@autoreleasepool {
		NSRunningApplication *app = [NSRunningApplication
			runningApplicationWithProcessIdentifier:(pid_t)pid];
		if (app == nil) {
			return 1;
		}
		return [app unhide] ? 0 : 1;
	}
}

int ws_launch(const char *path) {
	@autoreleasepool {
		NSString *p = [NSString stringWithUTF8String:path];
		return [[NSWorkspace sharedWorkspace] launchApplication:p] ? 0 : 1;
	}
}

int ws_pid_for_bundle(const char *bundleID) {
	@autoreleasepool {
		NSString *bid = [NSString stringWithUTF8String:bundleID];
		NSArray<NSRunningApplication *> *apps =
			[NSRunningApplication runningApplicationsWithBundleIdentifier:bid];
		if (apps.count == 0) {
			return 0;
		}
		return (int)apps.firstObject.processIdentifier;
	}
}

void ws_watch_terminations(void) {
	@autoreleasepool {
		NSNotificationCenter *center =
			[NSWorkspace sharedWorkspace].notificationCenter;
		[center addObserverForName:NSWorkspaceDidTerminateApplicationNotification
				    object:nil
				     queue:nil
				usingBlock:^(NSNotification *note) {
			NSRunningApplication *app =
				note.userInfo[NSWorkspaceApplicationKey];
			if (app != nil) {
				goAppTerminated((int)app.processIdentifier);
			}
		}];
	}
}
*/
import "C"

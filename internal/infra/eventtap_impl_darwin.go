//go:build darwin

package infra

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>

extern void goTapEvent(int kind, double x, double y, long clickCount);

static CFMachPortRef tapPort = NULL;
static CFRunLoopSourceRef tapSource = NULL;
static CFRunLoopRef tapRunLoop = NULL;
static volatile int tapEnabled = 0;

static CGEventRef tap_callback(CGEventTapProxy proxy, CGEventType type,
                               CGEventRef event, void *info) {
    // The OS disables a tap it considers too slow; surface that through
    // tap_is_enabled instead of silently losing the stream.
    if (type == kCGEventTapDisabledByTimeout ||
        type == kCGEventTapDisabledByUserInput) {
        tapEnabled = 0;
        return event;
    }

    int kind;
    switch (type) {
    case kCGEventMouseMoved:     kind = 0; break;
    case kCGEventLeftMouseDown:  kind = 1; break;
    case kCGEventLeftMouseUp:    kind = 2; break;
    case kCGEventRightMouseDown: kind = 3; break;
    case kCGEventRightMouseUp:   kind = 4; break;
    default:
        return event;
    }

    CGPoint loc = CGEventGetLocation(event);
    long clicks = CGEventGetIntegerValueField(event, kCGMouseEventClickState);
    goTapEvent(kind, loc.x, loc.y, clicks);
    return event;
}

// tap_install creates the listen-only tap on the calling thread's run loop.
// Returns nonzero on failure (typically missing permission).
int tap_install(void) {
    CGEventMask mask =
        CGEventMaskBit(kCGEventMouseMoved) |
        CGEventMaskBit(kCGEventLeftMouseDown) |
        CGEventMaskBit(kCGEventLeftMouseUp) |
        CGEventMaskBit(kCGEventRightMouseDown) |
        CGEventMaskBit(kCGEventRightMouseUp);

    tapPort = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
        kCGEventTapOptionListenOnly, mask, tap_callback, NULL);
    if (tapPort == NULL) {
        return 1;
    }

    tapSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tapPort, 0);
    tapRunLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(tapRunLoop, tapSource, kCFRunLoopCommonModes);
    CGEventTapEnable(tapPort, true);
    tapEnabled = 1;
    return 0;
}

// tap_run services the tap until tap_shutdown stops the run loop.
void tap_run(void) {
    CFRunLoopRun();
}

void tap_shutdown(void) {
    if (tapPort != NULL) {
        CGEventTapEnable(tapPort, false);
    }
    if (tapRunLoop != NULL) {
        CFRunLoopStop(tapRunLoop);
        tapRunLoop = NULL;
    }
    if (tapSource != NULL) {
        CFRunLoopSourceInvalidate(tapSource);
        CFRelease(tapSource);
        tapSource = NULL;
    }
    if (tapPort != NULL) {
        CFRelease(tapPort);
        tapPort = NULL;
    }
    tapEnabled = 0;
}

int tap_is_enabled(void) {
    return tapEnabled && tapPort != NULL && CGEventTapIsEnabled(tapPort);
}
*/
import "C"

//go:build darwin

package infra

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>
#include <string.h>

// Status codes mirrored by the Go side.
#define AX_OK      0
#define AX_ABSENT  1
#define AX_INVALID 2

// Undocumented but long-stable; the only way to map an accessibility
// window element onto its window-server id.
extern AXError _AXUIElementGetWindow(AXUIElementRef element, CGWindowID *out);

static int ax_status(AXError err) {
    switch (err) {
    case kAXErrorSuccess:
        return AX_OK;
    case kAXErrorNoValue:
    case kAXErrorAttributeUnsupported:
    case kAXErrorActionUnsupported:
        return AX_ABSENT;
    default:
        return AX_INVALID;
    }
}

static int ax_is_trusted(int prompt) {
    if (!prompt) {
        return AXIsProcessTrusted();
    }
    CFStringRef keys[] = { kAXTrustedCheckOptionPrompt };
    CFTypeRef values[] = { kCFBooleanTrue };
    CFDictionaryRef opts = CFDictionaryCreate(kCFAllocatorDefault,
        (const void **)keys, (const void **)values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    Boolean trusted = AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
    return trusted;
}

static int ax_element_at_point(float x, float y, AXUIElementRef *out) {
    AXUIElementRef sys = AXUIElementCreateSystemWide();
    AXError err = AXUIElementCopyElementAtPosition(sys, x, y, out);
    CFRelease(sys);
    return ax_status(err);
}

static int ax_element_pid(AXUIElementRef el, int *out) {
    pid_t pid = 0;
    AXError err = AXUIElementGetPid(el, &pid);
    *out = (int)pid;
    return ax_status(err);
}

static int ax_copy_string_attr(AXUIElementRef el, const char *attr, char **out) {
    CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, name, &value);
    CFRelease(name);
    if (err != kAXErrorSuccess) {
        return ax_status(err);
    }
    if (value == NULL || CFGetTypeID(value) != CFStringGetTypeID()) {
        if (value) CFRelease(value);
        return AX_ABSENT;
    }
    CFIndex len = CFStringGetMaximumSizeForEncoding(
        CFStringGetLength((CFStringRef)value), kCFStringEncodingUTF8) + 1;
    *out = malloc(len);
    if (!CFStringGetCString((CFStringRef)value, *out, len, kCFStringEncodingUTF8)) {
        free(*out);
        *out = NULL;
        CFRelease(value);
        return AX_ABSENT;
    }
    CFRelease(value);
    return AX_OK;
}

static int ax_copy_url_attr(AXUIElementRef el, const char *attr, char **out) {
    CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, name, &value);
    CFRelease(name);
    if (err != kAXErrorSuccess) {
        return ax_status(err);
    }
    if (value == NULL || CFGetTypeID(value) != CFURLGetTypeID()) {
        if (value) CFRelease(value);
        return AX_ABSENT;
    }
    CFStringRef path = CFURLCopyFileSystemPath((CFURLRef)value, kCFURLPOSIXPathStyle);
    CFRelease(value);
    if (path == NULL) {
        return AX_ABSENT;
    }
    CFIndex len = CFStringGetMaximumSizeForEncoding(
        CFStringGetLength(path), kCFStringEncodingUTF8) + 1;
    *out = malloc(len);
    if (!CFStringGetCString(path, *out, len, kCFStringEncodingUTF8)) {
        free(*out);
        *out = NULL;
        CFRelease(path);
        return AX_ABSENT;
    }
    CFRelease(path);
    return AX_OK;
}

static int ax_get_bool_attr(AXUIElementRef el, const char *attr, int *out) {
    CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, name, &value);
    CFRelease(name);
    if (err != kAXErrorSuccess) {
        return ax_status(err);
    }
    if (value == NULL || CFGetTypeID(value) != CFBooleanGetTypeID()) {
        if (value) CFRelease(value);
        return AX_ABSENT;
    }
    *out = CFBooleanGetValue((CFBooleanRef)value);
    CFRelease(value);
    return AX_OK;
}

static int ax_set_bool_attr(AXUIElementRef el, const char *attr, int val) {
    CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
    AXError err = AXUIElementSetAttributeValue(el, name,
        val ? kCFBooleanTrue : kCFBooleanFalse);
    CFRelease(name);
    return ax_status(err);
}

static int ax_get_point_attr(AXUIElementRef el, const char *attr, float *x, float *y) {
    CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, name, &value);
    CFRelease(name);
    if (err != kAXErrorSuccess) {
        return ax_status(err);
    }
    CGPoint p;
    if (value == NULL || !AXValueGetValue((AXValueRef)value, kAXValueTypeCGPoint, &p)) {
        if (value) CFRelease(value);
        return AX_ABSENT;
    }
    CFRelease(value);
    *x = p.x;
    *y = p.y;
    return AX_OK;
}

static int ax_get_size_attr(AXUIElementRef el, const char *attr, float *w, float *h) {
    CFStringRef name = CFStringCreateWithCString(NULL, attr, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, name, &value);
    CFRelease(name);
    if (err != kAXErrorSuccess) {
        return ax_status(err);
    }
    CGSize s;
    if (value == NULL || !AXValueGetValue((AXValueRef)value, kAXValueTypeCGSize, &s)) {
        if (value) CFRelease(value);
        return AX_ABSENT;
    }
    CFRelease(value);
    *w = s.width;
    *h = s.height;
    return AX_OK;
}

static int ax_perform(AXUIElementRef el, const char *action) {
    CFStringRef name = CFStringCreateWithCString(NULL, action, kCFStringEncodingUTF8);
    AXError err = AXUIElementPerformAction(el, name);
    CFRelease(name);
    return ax_status(err);
}

// ax_app_windows copies the app's window elements front to back. The caller
// releases each element and frees the array.
static int ax_app_windows(int pid, AXUIElementRef **out, int *count) {
    AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(app, kAXWindowsAttribute, &value);
    CFRelease(app);
    if (err != kAXErrorSuccess) {
        return ax_status(err);
    }
    if (value == NULL || CFGetTypeID(value) != CFArrayGetTypeID()) {
        if (value) CFRelease(value);
        return AX_ABSENT;
    }
    CFArrayRef arr = (CFArrayRef)value;
    CFIndex n = CFArrayGetCount(arr);
    *count = (int)n;
    *out = malloc(sizeof(AXUIElementRef) * (n > 0 ? n : 1));
    for (CFIndex i = 0; i < n; i++) {
        AXUIElementRef w = (AXUIElementRef)CFArrayGetValueAtIndex(arr, i);
        CFRetain(w);
        (*out)[i] = w;
    }
    CFRelease(arr);
    return AX_OK;
}

static unsigned int ax_window_id(AXUIElementRef el) {
    CGWindowID wid = 0;
    if (_AXUIElementGetWindow(el, &wid) != kAXErrorSuccess) {
        return 0;
    }
    return (unsigned int)wid;
}

// cg_onscreen_window_count counts layer-0 window-server windows of a pid.
static int cg_onscreen_window_count(int pid) {
    CFArrayRef list = CGWindowListCopyWindowInfo(
        kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
        kCGNullWindowID);
    if (list == NULL) {
        return 0;
    }
    int count = 0;
    CFIndex n = CFArrayGetCount(list);
    for (CFIndex i = 0; i < n; i++) {
        CFDictionaryRef info = CFArrayGetValueAtIndex(list, i);
        CFNumberRef ownerRef = CFDictionaryGetValue(info, kCGWindowOwnerPID);
        CFNumberRef layerRef = CFDictionaryGetValue(info, kCGWindowLayer);
        int owner = 0, layer = -1;
        if (ownerRef) CFNumberGetValue(ownerRef, kCFNumberIntType, &owner);
        if (layerRef) CFNumberGetValue(layerRef, kCFNumberIntType, &layer);
        if (owner == pid && layer == 0) {
            count++;
        }
    }
    CFRelease(list);
    return count;
}

static void cg_screen_frame(float *x, float *y, float *w, float *h) {
    CGRect r = CGDisplayBounds(CGMainDisplayID());
    *x = r.origin.x;
    *y = r.origin.y;
    *w = r.size.width;
    *h = r.size.height;
}

static void ax_release(AXUIElementRef el) {
    if (el) CFRelease(el);
}
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/LimTec-de/dockapptoggler/internal/domain"
)

// axElement wraps an AXUIElementRef. The wrapper owns one retain, released
// by the finalizer.
type axElement struct {
	ref C.AXUIElementRef
}

func wrapElement(ref C.AXUIElementRef) *axElement {
	el := &axElement{ref: ref}
	runtime.SetFinalizer(el, func(e *axElement) {
		C.ax_release(e.ref)
	})
	return el
}

// attrNames maps the portable attribute names onto AX constants.
var attrNames = map[string]string{
	domain.AttrTitle:     "AXTitle",
	domain.AttrRole:      "AXRole",
	domain.AttrSubrole:   "AXSubrole",
	domain.AttrPosition:  "AXPosition",
	domain.AttrSize:      "AXSize",
	domain.AttrURL:       "AXURL",
	domain.AttrMinimized: "AXMinimized",
	domain.AttrHidden:    "AXHidden",
	domain.AttrMain:      "AXMain",
	domain.AttrFocused:   "AXFocused",
	domain.ActionRaise:   "AXRaise",
	domain.ActionPress:   "AXPress",
}

func axName(attr string) *C.char {
	if mapped, ok := attrNames[attr]; ok {
		attr = mapped
	}
	return C.CString(attr)
}

func toStatus(code C.int) domain.AttrStatus {
	switch code {
	case 0:
		return domain.AttrOK
	case 1:
		return domain.AttrAbsent
	default:
		return domain.ElementInvalid
	}
}

// AXIntrospector implements domain.Introspector over the macOS
// accessibility API.
type AXIntrospector struct{}

// NewAXIntrospector creates the accessibility adapter.
func NewAXIntrospector() *AXIntrospector {
	return &AXIntrospector{}
}

func (a *AXIntrospector) ElementAtPoint(p domain.Point) (domain.Element, bool) {
	var ref C.AXUIElementRef
	if C.ax_element_at_point(C.float(p.X), C.float(p.Y), &ref) != 0 || ref == 0 {
		return nil, false
	}
	return wrapElement(ref), true
}

func (a *AXIntrospector) ElementPID(el domain.Element) (int, bool) {
	ax, ok := el.(*axElement)
	if !ok {
		return 0, false
	}
	var pid C.int
	if C.ax_element_pid(ax.ref, &pid) != 0 {
		return 0, false
	}
	return int(pid), true
}

func (a *AXIntrospector) StringAttr(el domain.Element, attr string) (string, domain.AttrStatus) {
	ax, ok := el.(*axElement)
	if !ok {
		return "", domain.ElementInvalid
	}
	name := axName(attr)
	defer C.free(unsafe.Pointer(name))

	var out *C.char
	code := C.ax_copy_string_attr(ax.ref, name, &out)
	if code != 0 {
		return "", toStatus(code)
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoString(out), domain.AttrOK
}

func (a *AXIntrospector) BoolAttr(el domain.Element, attr string) (bool, domain.AttrStatus) {
	ax, ok := el.(*axElement)
	if !ok {
		return false, domain.ElementInvalid
	}
	name := axName(attr)
	defer C.free(unsafe.Pointer(name))

	var out C.int
	code := C.ax_get_bool_attr(ax.ref, name, &out)
	return out != 0, toStatus(code)
}

func (a *AXIntrospector) PointAttr(el domain.Element, attr string) (domain.Point, domain.AttrStatus) {
	ax, ok := el.(*axElement)
	if !ok {
		return domain.Point{}, domain.ElementInvalid
	}
	name := axName(attr)
	defer C.free(unsafe.Pointer(name))

	var x, y C.float
	code := C.ax_get_point_attr(ax.ref, name, &x, &y)
	return domain.Point{X: float64(x), Y: float64(y)}, toStatus(code)
}

func (a *AXIntrospector) SizeAttr(el domain.Element, attr string) (domain.Rect, domain.AttrStatus) {
	ax, ok := el.(*axElement)
	if !ok {
		return domain.Rect{}, domain.ElementInvalid
	}
	name := axName(attr)
	defer C.free(unsafe.Pointer(name))

	var w, h C.float
	code := C.ax_get_size_attr(ax.ref, name, &w, &h)
	return domain.Rect{Width: float64(w), Height: float64(h)}, toStatus(code)
}

func (a *AXIntrospector) URLAttr(el domain.Element, attr string) (string, domain.AttrStatus) {
	ax, ok := el.(*axElement)
	if !ok {
		return "", domain.ElementInvalid
	}
	name := axName(attr)
	defer C.free(unsafe.Pointer(name))

	var out *C.char
	code := C.ax_copy_url_attr(ax.ref, name, &out)
	if code != 0 {
		return "", toStatus(code)
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoString(out), domain.AttrOK
}

func (a *AXIntrospector) SetBoolAttr(el domain.Element, attr string, value bool) domain.AttrStatus {
	ax, ok := el.(*axElement)
	if !ok {
		return domain.ElementInvalid
	}
	name := axName(attr)
	defer C.free(unsafe.Pointer(name))

	v := C.int(0)
	if value {
		v = 1
	}
	return toStatus(C.ax_set_bool_attr(ax.ref, name, v))
}

func (a *AXIntrospector) Perform(el domain.Element, action string) domain.AttrStatus {
	ax, ok := el.(*axElement)
	if !ok {
		return domain.ElementInvalid
	}
	name := axName(action)
	defer C.free(unsafe.Pointer(name))

	return toStatus(C.ax_perform(ax.ref, name))
}

func (a *AXIntrospector) AppWindows(pid int) ([]domain.Element, domain.AttrStatus) {
	var refs *C.AXUIElementRef
	var count C.int
	code := C.ax_app_windows(C.int(pid), &refs, &count)
	if code != 0 {
		return nil, toStatus(code)
	}
	defer C.free(unsafe.Pointer(refs))

	n := int(count)
	slice := unsafe.Slice(refs, n)
	out := make([]domain.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, wrapElement(slice[i]))
	}
	return out, domain.AttrOK
}

func (a *AXIntrospector) WindowID(el domain.Element) uint32 {
	ax, ok := el.(*axElement)
	if !ok {
		return 0
	}
	return uint32(C.ax_window_id(ax.ref))
}

func (a *AXIntrospector) OnScreenWindowCount(pid int) int {
	return int(C.cg_onscreen_window_count(C.int(pid)))
}

func (a *AXIntrospector) ScreenFrame() domain.Rect {
	var x, y, w, h C.float
	C.cg_screen_frame(&x, &y, &w, &h)
	return domain.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}
}

func (a *AXIntrospector) Trusted(prompt bool) bool {
	p := C.int(0)
	if prompt {
		p = 1
	}
	return C.ax_is_trusted(p) != 0
}

var _ domain.Introspector = (*AXIntrospector)(nil)

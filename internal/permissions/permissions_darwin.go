//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>

int checkCapturePermission() {
    return CGPreflightScreenCaptureAccess() ? 1 : 0;
}

int requestCapturePermission() {
    return CGRequestScreenCaptureAccess() ? 1 : 0;
}
*/
import "C"

// CaptureAllowed reports whether system-audio capture is authorized. On macOS
// desktop audio rides on the Screen Recording permission.
func CaptureAllowed() bool {
	return int(C.checkCapturePermission()) == 1
}

// RequestCapture triggers the system permission prompt. The grant only takes
// effect after the helper is restarted, so callers still report
// permission_denied for the current session.
func RequestCapture() bool {
	return int(C.requestCapturePermission()) == 1
}

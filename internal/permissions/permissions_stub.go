//go:build !darwin

package permissions

// CaptureAllowed always reports true outside macOS; loopback capture devices
// need no special authorization there.
func CaptureAllowed() bool {
	return true
}

// RequestCapture is a no-op outside macOS.
func RequestCapture() bool {
	return true
}

//go:build !linux

package platform

import "fmt"

// openX11 is only available on Linux.
func openX11() (Session, error) {
	return nil, fmt.Errorf("x11 backend is only supported on linux")
}

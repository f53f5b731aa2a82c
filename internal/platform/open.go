package platform

import "fmt"

// Backend names accepted by Open.
const (
	BackendX11      = "x11"
	BackendHeadless = "headless"
)

// Open connects the named backend.
func Open(name string) (Session, error) {
	switch name {
	case BackendX11, "":
		return openX11()
	case BackendHeadless:
		return NewHeadless(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

//go:build linux

package platform

func openX11() (Session, error) {
	return NewLinuxBackendFromDisplay()
}

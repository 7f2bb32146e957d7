//go:build !windows

package presentation

// platformVariant defers to desktop environment sniffing
func platformVariant() (Variant, bool) {
	return "", false
}

//go:build windows

package presentation

import "golang.org/x/sys/windows/registry"

const personalizeKey = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`

// platformVariant reads the taskbar theme from the registry
func platformVariant() (Variant, bool) {
	k, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
	if err != nil {
		return VariantLight, true
	}
	defer k.Close()

	light, _, err := k.GetIntegerValue("SystemUsesLightTheme")
	if err != nil || light == 0 {
		return VariantLight, true
	}
	return VariantDark, true
}

// Package presentation maps poll results to tray icons, tooltips and
// status text.
package presentation

import "fmt"

// Theme is the user's icon theme preference, persisted as an int
type Theme int

const (
	ThemeSystem Theme = iota
	ThemeDark
	ThemeLight
)

// String returns the theme name
func (t Theme) String() string {
	switch t {
	case ThemeDark:
		return "dark"
	case ThemeLight:
		return "light"
	default:
		return "system"
	}
}

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t >= ThemeSystem && t <= ThemeLight
}

// Variant is the icon set suffix
type Variant string

// Icon variants. Light glyphs are drawn for dark panels and vice versa.
const (
	VariantLight    Variant = "light"
	VariantDark     Variant = "dark"
	VariantSymbolic Variant = "symbolic"
)

// tiers maps the inclusive lower bound of each level bucket to its icon tier
var tiers = []struct {
	min  int
	tier string
}{
	{90, "100"},
	{80, "090"},
	{70, "080"},
	{60, "070"},
	{50, "060"},
	{40, "050"},
	{30, "040"},
	{20, "030"},
	{10, "020"},
}

// IconName returns the icon identifier for a battery state.
// missing wins over charging, charging ignores the level.
func IconName(level int, charging, missing bool, variant Variant) string {
	if missing {
		return fmt.Sprintf("battery-missing-%s", variant)
	}
	if charging {
		return fmt.Sprintf("battery-100-charging-%s", variant)
	}
	return fmt.Sprintf("battery-%s-%s", levelTier(level), variant)
}

func levelTier(level int) string {
	for _, t := range tiers {
		if level >= t.min {
			return t.tier
		}
	}
	return "010"
}

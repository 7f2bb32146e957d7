package presentation

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ThemeResolver decides which icon variant matches the desktop when the
// user picked ThemeSystem
type ThemeResolver interface {
	SystemVariant() Variant
}

// ThemeResolverFunc adapts a function to ThemeResolver
type ThemeResolverFunc func() Variant

// SystemVariant implements ThemeResolver
func (f ThemeResolverFunc) SystemVariant() Variant {
	return f()
}

// ResolveVariant maps a theme preference to an icon variant
func ResolveVariant(theme Theme, resolver ThemeResolver) Variant {
	switch theme {
	case ThemeDark:
		return VariantLight
	case ThemeLight:
		return VariantDark
	default:
		if resolver == nil {
			return VariantLight
		}
		return resolver.SystemVariant()
	}
}

// DesktopResolver resolves the system theme from the running desktop.
// The result is cached for CacheTTL since detection may spawn a process.
type DesktopResolver struct {
	CacheTTL time.Duration

	// Overridable for tests
	getenv        func(string) string
	plasmaVersion func() string

	cached   Variant
	cachedAt time.Time
}

// NewDesktopResolver creates a resolver bound to the process environment
func NewDesktopResolver() *DesktopResolver {
	return &DesktopResolver{
		CacheTTL:      time.Minute,
		getenv:        os.Getenv,
		plasmaVersion: plasmaShellVersion,
	}
}

// SystemVariant implements ThemeResolver
func (r *DesktopResolver) SystemVariant() Variant {
	if r.cached != "" && time.Since(r.cachedAt) < r.CacheTTL {
		return r.cached
	}
	r.cached = r.detect()
	r.cachedAt = time.Now()
	return r.cached
}

func (r *DesktopResolver) detect() Variant {
	if v, ok := platformVariant(); ok {
		return v
	}

	desktop := r.getenv("XDG_CURRENT_DESKTOP")
	if !strings.Contains(strings.ToUpper(desktop), "KDE") {
		return VariantDark
	}

	version := r.plasmaVersion()
	switch {
	case strings.HasPrefix(version, "6"):
		log.Debug().Str("version", version).Msg("KDE Plasma 6 detected")
		return VariantSymbolic
	case strings.HasPrefix(version, "5"):
		log.Debug().Str("version", version).Msg("KDE Plasma 5 detected")
		return VariantLight
	default:
		log.Debug().Str("version", version).Msg("Unknown KDE Plasma version")
		return VariantLight
	}
}

// plasmaShellVersion returns the bare version reported by `plasmashell --version`
func plasmaShellVersion() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "plasmashell", "--version").Output()
	if err != nil {
		return ""
	}
	// "plasmashell 6.1.5"
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

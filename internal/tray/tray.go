// Package tray renders the daemon state into a system tray icon and turns
// menu clicks into settings intents.
package tray

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/presentation"
	"github.com/dokzlo13/headsetd/internal/settings"
)

// IntentSink receives intents produced by menu clicks
type IntentSink interface {
	Submit(in settings.Intent) bool
}

// sidetoneLevels are the committed sidetone presets offered in the menu
var sidetoneLevels = []struct {
	title string
	value int
}{
	{"Off", 0},
	{"Low", 32},
	{"Medium", 64},
	{"High", 96},
	{"Max", settings.MaxSidetone},
}

// thresholdLevels are the battery percentages offered for both thresholds
var thresholdLevels = []int{5, 10, 15, 20, 25, 30, 40, 50}

var themeItems = []presentation.Theme{
	presentation.ThemeSystem,
	presentation.ThemeDark,
	presentation.ThemeLight,
}

// Tray is the system tray surface
type Tray struct {
	iconsDir string
	sink     IntentSink
	onQuit   func()

	mu        sync.Mutex
	ready     bool
	iconCache map[string][]byte
	lastIcon  string

	mDevice    *systray.MenuItem
	mStatus    *systray.MenuItem
	mLed       *systray.MenuItem
	mSidetone  *systray.MenuItem
	mSidetones []*systray.MenuItem
	mLight     *systray.MenuItem
	mLights    []*systray.MenuItem
	mNotify    *systray.MenuItem
	mNotifies  []*systray.MenuItem
	mThemes    []*systray.MenuItem
	mAutostart *systray.MenuItem
	mQuit      *systray.MenuItem
}

// New creates a tray surface. onQuit is called when the user picks Exit.
func New(iconsDir string, sink IntentSink, onQuit func()) *Tray {
	return &Tray{
		iconsDir:  iconsDir,
		sink:      sink,
		onQuit:    onQuit,
		iconCache: make(map[string][]byte),
	}
}

// Run blocks in the tray event loop. onReady runs once the tray exists,
// onExit after systray.Quit. Must be called from the main goroutine.
func (t *Tray) Run(onReady, onExit func()) {
	systray.Run(func() {
		t.build()
		onReady()
	}, onExit)
}

// Quit stops the tray event loop
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) build() {
	systray.SetTitle("headsetd")
	systray.SetTooltip(presentation.TooltipNoDevice)
	if icon := t.loadIcon("icon"); icon != nil {
		systray.SetIcon(icon)
	}

	t.mDevice = systray.AddMenuItem("No Device Found", "")
	t.mDevice.Disable()
	t.mStatus = systray.AddMenuItem("", "")
	t.mStatus.Disable()
	t.mStatus.Hide()
	systray.AddSeparator()

	t.mLed = systray.AddMenuItemCheckbox("Lights", "Turn lights off on low battery", false)
	t.mSidetone = systray.AddMenuItem("Sidetone", "")
	for _, lvl := range sidetoneLevels {
		t.mSidetones = append(t.mSidetones, t.mSidetone.AddSubMenuItemCheckbox(lvl.title, "", false))
	}
	t.mLight = systray.AddMenuItem(lightMenuTitle, "Turn lights off below this battery level")
	for _, lvl := range thresholdLevels {
		t.mLights = append(t.mLights, t.mLight.AddSubMenuItemCheckbox(fmt.Sprintf("%d%%", lvl), "", false))
	}
	t.mNotify = systray.AddMenuItem(notifyMenuTitle, "Notify below this battery level")
	for _, lvl := range thresholdLevels {
		t.mNotifies = append(t.mNotifies, t.mNotify.AddSubMenuItemCheckbox(fmt.Sprintf("%d%%", lvl), "", false))
	}
	mTheme := systray.AddMenuItem("Icon theme", "")
	for _, th := range themeItems {
		t.mThemes = append(t.mThemes, mTheme.AddSubMenuItemCheckbox(themeTitle(th), "", false))
	}
	t.mAutostart = systray.AddMenuItemCheckbox("Start on login", "", false)
	systray.AddSeparator()
	t.mQuit = systray.AddMenuItem("Exit", "Quit headsetd")

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()

	go t.handleClicks()
}

// handleClicks converts menu clicks into intents
func (t *Tray) handleClicks() {
	for i, item := range t.mSidetones {
		go func(value int, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.sink.Submit(settings.SetSidetone(value))
			}
		}(sidetoneLevels[i].value, item)
	}
	for i, item := range t.mLights {
		go func(value int, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.sink.Submit(settings.SetLightThreshold(value))
			}
		}(thresholdLevels[i], item)
	}
	for i, item := range t.mNotifies {
		go func(value int, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.sink.Submit(settings.SetNotificationThreshold(value))
			}
		}(thresholdLevels[i], item)
	}
	for i, item := range t.mThemes {
		go func(theme presentation.Theme, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.sink.Submit(settings.SetTheme(theme))
			}
		}(themeItems[i], item)
	}

	for {
		select {
		case <-t.mLed.ClickedCh:
			t.sink.Submit(settings.SetLedEnabled(!t.mLed.Checked()))
		case <-t.mAutostart.ClickedCh:
			t.sink.Submit(settings.SetAutostart(!t.mAutostart.Checked()))
		case <-t.mQuit.ClickedCh:
			log.Info().Msg("Exit requested from tray")
			if t.onQuit != nil {
				t.onQuit()
			}
			return
		}
	}
}

// Render updates icon, tooltip and menu state
func (t *Tray) Render(view presentation.View, s settings.Settings, autostart bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	if view.Icon != t.lastIcon {
		if icon := t.loadIconLocked(view.Icon); icon != nil {
			systray.SetIcon(icon)
			t.lastIcon = view.Icon
		}
	}
	systray.SetTooltip(view.Tooltip)

	if view.DeviceFound {
		t.mDevice.SetTitle(view.Device)
		t.mStatus.SetTitle(fmt.Sprintf("Battery: %s", view.Status))
		t.mStatus.Show()
	} else {
		t.mDevice.SetTitle(presentation.TooltipNoDevice)
		t.mStatus.Hide()
	}

	setEnabled(t.mLed, view.DeviceFound && view.LightsSupported)
	setEnabled(t.mSidetone, view.DeviceFound && view.SidetoneSupported)
	setChecked(t.mLed, s.LedEnabled)
	setChecked(t.mAutostart, autostart)
	for i, item := range t.mSidetones {
		setChecked(item, sidetoneLevels[i].value == s.Sidetone)
	}
	t.mLight.SetTitle(thresholdTitle(lightMenuTitle, s.LightThreshold))
	for i, item := range t.mLights {
		setChecked(item, thresholdLevels[i] == s.LightThreshold)
	}
	t.mNotify.SetTitle(thresholdTitle(notifyMenuTitle, s.NotificationThreshold))
	for i, item := range t.mNotifies {
		setChecked(item, thresholdLevels[i] == s.NotificationThreshold)
	}
	for i, item := range t.mThemes {
		setChecked(item, themeItems[i] == s.Theme)
	}
}

// loadIcon reads <iconsDir>/<name>.png, caching the bytes
func (t *Tray) loadIcon(name string) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadIconLocked(name)
}

func (t *Tray) loadIconLocked(name string) []byte {
	if data, ok := t.iconCache[name]; ok {
		return data
	}
	path := filepath.Join(t.iconsDir, name+".png")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("icon", name).Msg("Failed to load tray icon")
		return nil
	}
	t.iconCache[name] = data
	return data
}

const (
	lightMenuTitle  = "Lights off below"
	notifyMenuTitle = "Notify below"
)

// thresholdTitle shows the current value, which may not match a preset
func thresholdTitle(label string, value int) string {
	return fmt.Sprintf("%s: %d%%", label, value)
}

func themeTitle(th presentation.Theme) string {
	switch th {
	case presentation.ThemeDark:
		return "Dark"
	case presentation.ThemeLight:
		return "Light"
	default:
		return "System"
	}
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/eventbus"
	"github.com/dokzlo13/headsetd/internal/headset"
	"github.com/dokzlo13/headsetd/internal/presentation"
	"github.com/dokzlo13/headsetd/internal/reconcile"
	"github.com/dokzlo13/headsetd/internal/settings"
)

// Cycle sources attached to published events
const (
	SourceStartup = "startup"
	SourcePoll    = "poll"
	SourceIntent  = "intent"
)

// Device is the external device-control tool as seen by the monitor
type Device interface {
	Status(ctx context.Context) headset.Result
	SetLED(ctx context.Context, on bool) error
	SetSidetone(ctx context.Context, level int) error
}

// Notifier shows user notifications
type Notifier interface {
	Notify(title, body string) error
}

// Surface renders the current view (tray icon, etc.)
type Surface interface {
	Render(view presentation.View, s settings.Settings, autostart bool)
}

// Autostarter manages the login autostart entry
type Autostarter interface {
	Enabled() bool
	Set(enabled bool) error
}

// Status is the read-only copy of the monitor state shared with other goroutines
type Status struct {
	View      presentation.View `json:"view"`
	Settings  settings.Settings `json:"settings"`
	Autostart bool              `json:"autostart"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// MonitorDeps are the collaborators of a Monitor. Bus and Autostart may be nil.
type MonitorDeps struct {
	Device     Device
	Reconciler *reconcile.Reconciler
	Store      *settings.Store
	Resolver   presentation.ThemeResolver
	Notifier   Notifier
	Bus        *eventbus.Bus
	Autostart  Autostarter
	Interval   time.Duration
}

// Monitor is the control loop. Run owns the reconciler state and the
// settings; every other goroutine talks to it through Submit and Status.
type Monitor struct {
	deps    MonitorDeps
	intents chan settings.Intent

	// Owned by the Run goroutine
	settings settings.Settings
	state    reconcile.State
	last     headset.Result
	tickID   string
	source   string // what triggered the current cycle: startup, poll or intent

	mu       sync.RWMutex
	status   Status
	surfaces []Surface
}

// NewMonitor creates a monitor. Call Run to start it.
func NewMonitor(deps MonitorDeps) *Monitor {
	if deps.Interval <= 0 {
		deps.Interval = 10 * time.Second
	}
	if deps.Reconciler == nil {
		deps.Reconciler = reconcile.New(reconcile.DefaultHysteresis)
	}
	return &Monitor{
		deps:    deps,
		intents: make(chan settings.Intent, 16),
		last:    headset.NoDevice(headset.ErrNoDevices),
	}
}

// AddSurface registers a surface to render after every poll and intent
func (m *Monitor) AddSurface(s Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surfaces = append(m.surfaces, s)
}

// Submit queues an intent for the control loop (thread-safe, non-blocking).
// Returns false if the queue is full.
func (m *Monitor) Submit(in settings.Intent) bool {
	select {
	case m.intents <- in:
		return true
	default:
		log.Warn().Str("intent", string(in.Kind)).Msg("Intent queue full, dropping intent")
		return false
	}
}

// Status returns a copy of the latest state
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Run loads settings, applies startup commands, then polls on a fixed
// interval until ctx is cancelled. Intents are applied between ticks.
func (m *Monitor) Run(ctx context.Context) {
	m.start(ctx)

	ticker := time.NewTicker(m.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		case in := <-m.intents:
			m.applyIntent(ctx, in)
		}
	}
}

// start loads settings and pushes the persisted device configuration,
// followed by the first poll.
func (m *Monitor) start(ctx context.Context) {
	s, err := m.deps.Store.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", m.deps.Store.Path()).Msg("Failed to load settings, using defaults")
	}
	m.settings = s
	m.state = reconcile.State{
		LedEnabled:            s.LedEnabled,
		LightThreshold:        s.LightThreshold,
		NotificationThreshold: s.NotificationThreshold,
		LedOn:                 s.LedEnabled,
	}

	log.Info().
		Bool("led_enabled", s.LedEnabled).
		Int("light_threshold", s.LightThreshold).
		Int("notification_threshold", s.NotificationThreshold).
		Int("sidetone", s.Sidetone).
		Str("theme", s.Theme.String()).
		Int("hysteresis", m.deps.Reconciler.Band()).
		Dur("interval", m.deps.Interval).
		Msg("Monitor starting")

	m.tickID, m.source = uuid.NewString(), SourceStartup
	m.setSidetone(ctx, s.Sidetone)
	m.setLED(ctx, s.LedEnabled)

	m.tick(ctx)
}

// tick runs one Poller -> Reconciler -> Executor cycle
func (m *Monitor) tick(ctx context.Context) {
	m.tickID, m.source = uuid.NewString(), SourcePoll

	res := m.deps.Device.Status(ctx)
	m.last = res
	m.publishPoll(res)

	out := m.deps.Reconciler.Reconcile(res, m.state)
	m.state = out.State
	for _, a := range out.Actions {
		m.execute(ctx, a)
	}
	if out.Persist {
		m.persist()
	}

	m.render()
}

// execute performs one reconciler action. Failures are logged and ignored.
func (m *Monitor) execute(ctx context.Context, a reconcile.Action) {
	log.Info().Str("action", a.String()).Str("tick_id", m.tickID).Msg("Executing action")

	switch a.Kind {
	case reconcile.ActionLedOff:
		m.setLED(ctx, false)
	case reconcile.ActionLedOn:
		m.setLED(ctx, true)
	case reconcile.ActionNotify:
		if err := m.deps.Notifier.Notify(a.Title, a.Body); err != nil {
			log.Warn().Err(err).Msg("Failed to send notification")
			m.publishAction(string(a.Kind), map[string]any{"title": a.Title, "body": a.Body, "error": err.Error()})
			return
		}
		m.publishAction(string(a.Kind), map[string]any{"title": a.Title, "body": a.Body})
	}
}

func (m *Monitor) setLED(ctx context.Context, on bool) {
	kind := string(reconcile.ActionLedOff)
	if on {
		kind = string(reconcile.ActionLedOn)
	}
	if err := m.deps.Device.SetLED(ctx, on); err != nil {
		log.Warn().Err(err).Bool("on", on).Msg("Failed to set headset lights")
		m.publishAction(kind, map[string]any{"error": err.Error()})
		return
	}
	m.publishAction(kind, map[string]any{})
}

func (m *Monitor) setSidetone(ctx context.Context, level int) {
	if err := m.deps.Device.SetSidetone(ctx, level); err != nil {
		log.Warn().Err(err).Int("level", level).Msg("Failed to set sidetone")
		m.publishAction("sidetone", map[string]any{"level": level, "error": err.Error()})
		return
	}
	m.publishAction("sidetone", map[string]any{"level": level})
}

// applyIntent applies a user action to settings and state, persists, and
// issues the device commands the action implies.
func (m *Monitor) applyIntent(ctx context.Context, in settings.Intent) {
	m.tickID, m.source = uuid.NewString(), SourceIntent

	next, err := m.settings.Apply(in)
	if err != nil {
		log.Warn().Err(err).Str("intent", string(in.Kind)).Msg("Rejected intent")
		return
	}
	prev := m.settings
	m.settings = next

	log.Info().Str("intent", string(in.Kind)).Bool("enabled", in.Enabled).Int("value", in.Value).Msg("Applying intent")

	repoll := false
	switch in.Kind {
	case settings.IntentSetLedEnabled:
		m.state.LedEnabled = next.LedEnabled
		m.state.LedOn = next.LedEnabled
		m.setLED(ctx, next.LedEnabled)
	case settings.IntentSetLightThreshold:
		m.state.LightThreshold = next.LightThreshold
	case settings.IntentSetNotificationThreshold:
		m.state.NotificationThreshold = next.NotificationThreshold
	case settings.IntentSetSidetone:
		if next.Sidetone != prev.Sidetone {
			m.setSidetone(ctx, next.Sidetone)
		}
	case settings.IntentSetTheme:
		repoll = next.Theme != prev.Theme
	case settings.IntentSetAutostart:
		if m.deps.Autostart == nil {
			log.Warn().Msg("Autostart is not available")
			break
		}
		if err := m.deps.Autostart.Set(in.Enabled); err != nil {
			log.Warn().Err(err).Msg("Failed to update autostart")
		}
	}

	m.persist()
	m.publish(eventbus.EventSettings, map[string]any{
		"intent":                         string(in.Kind),
		"led_state":                      next.LedEnabled,
		"light_battery_threshold":        next.LightThreshold,
		"notification_battery_threshold": next.NotificationThreshold,
		"sidetone":                       next.Sidetone,
		"theme":                          next.Theme.String(),
	})

	if repoll {
		m.tick(ctx) // theme changes the icon variant
		return
	}
	m.render()
}

// persist writes settings; failures leave the in-memory settings in charge
func (m *Monitor) persist() {
	if err := m.deps.Store.Save(m.settings); err != nil {
		log.Warn().Err(err).Str("path", m.deps.Store.Path()).Msg("Failed to save settings")
	}
}

// render refreshes the shared status and all surfaces
func (m *Monitor) render() {
	variant := presentation.ResolveVariant(m.settings.Theme, m.deps.Resolver)
	view := presentation.Present(m.last, variant)

	autostart := false
	if m.deps.Autostart != nil {
		autostart = m.deps.Autostart.Enabled()
	}

	m.mu.Lock()
	m.status = Status{
		View:      view,
		Settings:  m.settings,
		Autostart: autostart,
		UpdatedAt: time.Now(),
	}
	surfaces := m.surfaces
	m.mu.Unlock()

	for _, s := range surfaces {
		s.Render(view, m.settings, autostart)
	}
}

func (m *Monitor) publishPoll(res headset.Result) {
	if !res.Found {
		log.Debug().Err(res.Err).Msg("No device found")
		m.publish(eventbus.EventNoDevice, map[string]any{"reason": errString(res.Err)})
		return
	}

	snap := res.Snapshot
	log.Debug().
		Str("device", snap.Device).
		Int("level", snap.BatteryLevel).
		Str("status", snap.BatteryStatus.String()).
		Msg("Polled device")
	m.publish(eventbus.EventDeviceFound, map[string]any{
		"device":       snap.Device,
		"level":        snap.BatteryLevel,
		"status":       snap.BatteryStatus.String(),
		"capabilities": snap.Capabilities,
	})
}

func (m *Monitor) publishAction(kind string, data map[string]any) {
	data["kind"] = kind
	if m.last.Found {
		data["device"] = m.last.Snapshot.Device
	}
	m.publish(eventbus.EventAction, data)
}

func (m *Monitor) publish(t eventbus.EventType, data map[string]any) {
	if m.deps.Bus == nil {
		return
	}
	data["source"] = m.source
	m.deps.Bus.Publish(eventbus.Event{
		Type:   t,
		TickID: m.tickID,
		Time:   time.Now(),
		Data:   data,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

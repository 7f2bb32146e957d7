package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/presentation"
	"github.com/dokzlo13/headsetd/internal/settings"
)

type fakeStatusSource struct {
	status    Status
	submitted []settings.Intent
	full      bool
}

func (s *fakeStatusSource) Status() Status { return s.status }

func (s *fakeStatusSource) Submit(in settings.Intent) bool {
	if s.full {
		return false
	}
	s.submitted = append(s.submitted, in)
	return true
}

func TestStatusService_Status(t *testing.T) {
	source := &fakeStatusSource{status: Status{
		View:     presentation.View{DeviceFound: true, Device: "Arctis 7", Status: "55%", Level: 55},
		Settings: settings.Defaults(),
	}}
	srv := NewStatusService(&config.Config{}, source)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var got Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.View.Device != "Arctis 7" || got.View.Level != 55 {
		t.Errorf("view = %+v", got.View)
	}
	if got.Settings != settings.Defaults() {
		t.Errorf("settings = %+v", got.Settings)
	}
}

func TestStatusService_Intents(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		full     bool
		wantCode int
		wantSent int
	}{
		{
			name:     "valid sidetone",
			method:   http.MethodPost,
			body:     `{"type":"set_sidetone","value":32}`,
			wantCode: http.StatusAccepted,
			wantSent: 1,
		},
		{
			name:     "valid led toggle",
			method:   http.MethodPost,
			body:     `{"type":"set_led_enabled","enabled":false}`,
			wantCode: http.StatusAccepted,
			wantSent: 1,
		},
		{
			name:     "unknown intent",
			method:   http.MethodPost,
			body:     `{"type":"reboot"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid theme",
			method:   http.MethodPost,
			body:     `{"type":"set_theme","value":9}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			method:   http.MethodPost,
			body:     `{"type":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "queue full",
			method:   http.MethodPost,
			body:     `{"type":"set_sidetone","value":32}`,
			full:     true,
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "wrong method",
			method:   http.MethodGet,
			wantCode: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeStatusSource{status: Status{Settings: settings.Defaults()}, full: tt.full}
			srv := NewStatusService(&config.Config{}, source)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/intents", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if len(source.submitted) != tt.wantSent {
				t.Errorf("submitted = %v, want %d intents", source.submitted, tt.wantSent)
			}
		})
	}
}

func TestStatusService_Health(t *testing.T) {
	srv := NewStatusService(&config.Config{}, &fakeStatusSource{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

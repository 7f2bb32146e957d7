package headset

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// fakeRunner records invocations and returns canned output
type fakeRunner struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return f.output, f.err
}

func TestClient_Status(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{"devices":[{"device":"Cloud II","battery":{"status":"BATTERY_AVAILABLE","level":42}}]}`)}
	c := NewClient(runner, 0)

	res := c.Status(context.Background())
	if !res.Found {
		t.Fatalf("expected device, got NoDevice: %v", res.Err)
	}
	if res.Snapshot.BatteryLevel != 42 {
		t.Errorf("BatteryLevel = %d, want 42", res.Snapshot.BatteryLevel)
	}
	if want := [][]string{{"-o", "json"}}; !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestClient_StatusToolFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: exit status 1", ErrToolFailed)}
	c := NewClient(runner, 0)

	res := c.Status(context.Background())
	if res.Found {
		t.Fatal("expected NoDevice on tool failure")
	}
	if !errors.Is(res.Err, ErrToolFailed) {
		t.Errorf("Err = %v, want ErrToolFailed", res.Err)
	}
}

func TestClient_StatusNonZeroExit(t *testing.T) {
	exitErr := fmt.Errorf("%w: %w: exit status 1", ErrToolFailed, ErrExitStatus)

	tests := []struct {
		name      string
		output    string
		err       error
		wantFound bool
		wantErr   error
	}{
		{
			name:      "valid document is still parsed",
			output:    `{"devices":[{"device":"Cloud","battery":{"level":15,"status":"BATTERY_AVAILABLE"}}]}`,
			err:       exitErr,
			wantFound: true,
		},
		{
			name:    "empty output is no device",
			err:     exitErr,
			wantErr: ErrExitStatus,
		},
		{
			name:    "garbage output keeps the tool error",
			output:  "usage: headsetcontrol ...",
			err:     exitErr,
			wantErr: ErrExitStatus,
		},
		{
			name:    "start failure ignores output",
			output:  `{"devices":[{"device":"Cloud","battery":{"level":15,"status":"BATTERY_AVAILABLE"}}]}`,
			err:     fmt.Errorf("%w: signal: killed", ErrToolFailed),
			wantErr: ErrToolFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&fakeRunner{output: []byte(tt.output), err: tt.err}, 0)

			res := c.Status(context.Background())
			if res.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v (err %v)", res.Found, tt.wantFound, res.Err)
			}
			if tt.wantFound && res.Snapshot.BatteryLevel != 15 {
				t.Errorf("BatteryLevel = %d, want 15", res.Snapshot.BatteryLevel)
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
			}
		})
	}
}

func TestClient_StatusEmptyDevices(t *testing.T) {
	runner := &fakeRunner{output: []byte(`{"devices":[]}`)}
	c := NewClient(runner, 0)

	res := c.Status(context.Background())
	if res.Found || !errors.Is(res.Err, ErrNoDevices) {
		t.Errorf("Status() = %+v, want NoDevice(ErrNoDevices)", res)
	}
}

func TestClient_Commands(t *testing.T) {
	runner := &fakeRunner{}
	c := NewClient(runner, 0)
	ctx := context.Background()

	if err := c.SetLED(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLED(ctx, false); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSidetone(ctx, 64); err != nil {
		t.Fatal(err)
	}

	want := [][]string{{"-l", "1"}, {"-l", "0"}, {"-s", "64"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{Path: "/nonexistent/headsetcontrol"}
	_, err := r.Run(context.Background(), "-o", "json")
	if !errors.Is(err, ErrToolFailed) {
		t.Errorf("Run() error = %v, want ErrToolFailed", err)
	}
}

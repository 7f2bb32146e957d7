//go:build !windows

package headset

import (
	"context"
	"errors"
	"testing"
)

func TestExecRunner_NonZeroExitKeepsStdout(t *testing.T) {
	r := &ExecRunner{Path: "/bin/sh"}
	script := `echo '{"devices":[{"device":"Cloud","battery":{"level":15,"status":"BATTERY_AVAILABLE"}}]}'; exit 1`

	out, err := r.Run(context.Background(), "-c", script)
	if !errors.Is(err, ErrExitStatus) {
		t.Fatalf("err = %v, want ErrExitStatus", err)
	}

	snap, perr := ParseStatus(out)
	if perr != nil {
		t.Fatalf("ParseStatus() error: %v", perr)
	}
	if snap.Device != "Cloud" || snap.BatteryLevel != 15 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestExecRunner_StartFailure(t *testing.T) {
	r := &ExecRunner{Path: "/nonexistent/headsetcontrol"}

	_, err := r.Run(context.Background(), "-o", "json")
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("err = %v, want ErrToolFailed", err)
	}
	if errors.Is(err, ErrExitStatus) {
		t.Errorf("start failure should not be an exit status error: %v", err)
	}
}

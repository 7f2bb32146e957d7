//go:build !windows

package headset

import "os/exec"

func hideWindow(cmd *exec.Cmd) {}

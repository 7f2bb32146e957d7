//go:build windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"
)

const entryExt = ".lnk"

// DefaultDir returns the per-user Startup folder
func DefaultDir() string {
	return filepath.Join(os.Getenv("APPDATA"), "Microsoft", "Windows", "Start Menu", "Programs", "Startup")
}

// writeEntry creates a .lnk shortcut through the WScript.Shell COM object
func writeEntry(path, exe string, args []string) error {
	if err := ole.CoInitialize(0); err != nil {
		return fmt.Errorf("CoInitialize failed: %v", err)
	}
	defer ole.CoUninitialize()

	shellObj, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("CreateObject(WScript.Shell) failed: %v", err)
	}
	defer shellObj.Release()

	shell, err := shellObj.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("QueryInterface IDispatch failed: %v", err)
	}
	defer shell.Release()

	scV, err := oleutil.CallMethod(shell, "CreateShortcut", path)
	if err != nil {
		return fmt.Errorf("CreateShortcut failed: %v", err)
	}
	sc := scV.ToIDispatch()
	defer sc.Release()

	if _, err := oleutil.PutProperty(sc, "TargetPath", exe); err != nil {
		return fmt.Errorf("set TargetPath failed: %v", err)
	}
	if len(args) > 0 {
		if _, err := oleutil.PutProperty(sc, "Arguments", windows.ComposeCommandLine(args)); err != nil {
			return fmt.Errorf("set Arguments failed: %v", err)
		}
	}
	_, _ = oleutil.PutProperty(sc, "WorkingDirectory", filepath.Dir(exe))
	_, _ = oleutil.PutProperty(sc, "Description", "Launch "+AppName)
	_, _ = oleutil.PutProperty(sc, "IconLocation", exe)

	if _, err := oleutil.CallMethod(sc, "Save"); err != nil {
		return fmt.Errorf("shortcut Save failed: %v", err)
	}
	return nil
}

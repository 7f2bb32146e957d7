//go:build !windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const entryExt = ".desktop"

// DefaultDir returns the XDG autostart directory
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "autostart")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "autostart"
	}
	return filepath.Join(home, ".config", "autostart")
}

func writeEntry(path, exe string, args []string) error {
	fields := make([]string, 0, len(args)+1)
	for _, a := range append([]string{exe}, args...) {
		fields = append(fields, quoteExecArg(a))
	}
	execLine := strings.Join(fields, " ")
	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Headset battery monitor
Path=%s
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, AppName, filepath.Dir(exe), execLine)

	return os.WriteFile(path, []byte(content), 0o644)
}

// execReserved are the characters that force quoting in an Exec key
const execReserved = " \t\n\"'\\><~|&;$*?#()`"

// quoteExecArg quotes one Exec argument per the Desktop Entry rules:
// reserved characters need double quotes, and inside them ", `, $ and \
// are backslash-escaped. Every backslash is then doubled because the value
// itself is an escaped string, and % is doubled to stay literal.
func quoteExecArg(arg string) string {
	arg = strings.ReplaceAll(arg, "%", "%%")
	if arg != "" && !strings.ContainsAny(arg, execReserved) {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$':
			b.WriteString(`\\`)
		case '\\':
			b.WriteString(`\\\`)
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

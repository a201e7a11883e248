package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

var lookupEnv = os.Getenv

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// IsHeadless reports whether the terminal is unlikely to be able to show a browser window:
// an SSH session, or Linux without an X11/Wayland display.
func IsHeadless() bool {
	if lookupEnv("SSH_CONNECTION") != "" || lookupEnv("SSH_TTY") != "" {
		return true
	}

	if getRuntime() == "linux" {
		return lookupEnv("DISPLAY") == "" && lookupEnv("WAYLAND_DISPLAY") == ""
	}

	return false
}

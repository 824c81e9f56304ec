package server

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/conneroisu/codeplay/internal/validation"
)

// browserCommand returns the command that opens url on goos.
func browserCommand(goos, url string) (*exec.Cmd, error) {
	if err := validation.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("refusing to open browser: %w", err)
	}

	switch goos {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	case "darwin":
		return exec.Command("open", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform %s", goos)
	}
}

// OpenBrowser opens url in the default browser without waiting for it.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

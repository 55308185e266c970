// Package browser opens hazard pages in the user's web browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Opener opens a URL for the user
type Opener interface {
	Open(url string) error
}

// SystemOpener hands URLs to the platform's default browser
type SystemOpener struct {
	goos  string
	start func(name string, args ...string) error
}

// NewOpener creates an opener for the running platform
func NewOpener() *SystemOpener {
	return &SystemOpener{goos: runtime.GOOS, start: startCommand}
}

// Open opens an http or https URL in the default browser without waiting
// for the browser to exit.
func (o *SystemOpener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	name, args, err := command(o.goos, u.String())
	if err != nil {
		return err
	}
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Package browser opens the console in the operator's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Commander starts external commands (swapped out in tests)
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander executes actual commands
type RealCommander struct{}

// Start starts the command without waiting for it
func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Opener launches the platform's URL handler
type Opener struct {
	Commander Commander
	GOOS      string
}

// New returns an Opener for the running platform
func New() *Opener {
	return &Opener{Commander: RealCommander{}, GOOS: runtime.GOOS}
}

// Open opens rawURL in the default browser. Only http and https URLs are
// accepted.
func (o *Opener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not a web URL: %q", rawURL)
	}

	name, args, err := command(o.GOOS, u.String())
	if err != nil {
		return err
	}
	return o.Commander.Start(name, args...)
}

// Open opens rawURL with the platform opener
func Open(rawURL string) error {
	return New().Open(rawURL)
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

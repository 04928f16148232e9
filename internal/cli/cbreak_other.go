//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package cli

import "golang.org/x/term"

// enterCbreak falls back to full raw mode where termios is unavailable
func enterCbreak(fd int) (func(), error) {
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		_ = term.Restore(fd, old)
	}, nil
}

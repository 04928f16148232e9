package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/abrezinsky/claimboard/internal/logger"
)

// KeyboardSession is the part of the session shortcuts drive
type KeyboardSession interface {
	Claim(ctx context.Context) error
	NextHistoryPage(ctx context.Context) error
	PreviousHistoryPage(ctx context.Context) error
	ReloadRoster(ctx context.Context) error
	MoveSelection(delta int)
}

// Keyboard maps single keys to console actions
type Keyboard struct {
	Session    KeyboardSession
	Log        logger.Logger
	Open       func(url string) error
	ConsoleURL string
	Out        io.Writer
	Quit       func()
}

var (
	titleColor = color.New(color.FgGreen, color.Bold)
	keyColor   = color.New(color.FgCyan)
	infoColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
	errColor   = color.New(color.FgRed)
)

var shortcuts = []struct{ key, help string }{
	{"c", "Claim points for the selected user"},
	{"j / k", "Move selection down / up the leaderboard"},
	{"n / p", "Next / previous history page"},
	{"r", "Reload the roster"},
	{"o", "Open the console in the browser"},
	{"h", "Toggle HTTP request logging"},
	{"l", "Cycle log level (debug, info, warn, error)"},
	{"q", "Quit"},
	{"?", "Show this help"},
}

// PrintHelp lists the shortcuts
func (k *Keyboard) PrintHelp() {
	titleColor.Fprintln(k.Out, "\n  Keyboard shortcuts:")
	for _, s := range shortcuts {
		fmt.Fprintf(k.Out, "    %-8s - %s\n", keyColor.Sprint(s.key), s.help)
	}
	fmt.Fprintln(k.Out)
}

// Handle runs the action bound to key. It reports false once the operator
// asked to quit.
func (k *Keyboard) Handle(ctx context.Context, key byte) bool {
	var err error

	switch strings.ToLower(string(key)) {
	case "c":
		err = k.Session.Claim(ctx)
	case "j":
		k.Session.MoveSelection(1)
	case "k":
		k.Session.MoveSelection(-1)
	case "n":
		err = k.Session.NextHistoryPage(ctx)
	case "p":
		err = k.Session.PreviousHistoryPage(ctx)
	case "r":
		err = k.Session.ReloadRoster(ctx)
	case "o":
		infoColor.Fprintln(k.Out, "Opening console in browser...")
		if err := k.Open(k.ConsoleURL); err != nil {
			errColor.Fprintf(k.Out, "Error opening browser: %v\n", err)
		}
	case "h":
		if k.Log.IsHTTPLoggingEnabled() {
			k.Log.DisableHTTPLogging()
			infoColor.Fprintln(k.Out, "HTTP logging disabled")
		} else {
			k.Log.EnableHTTPLogging()
			okColor.Fprintln(k.Out, "HTTP logging enabled")
		}
	case "l":
		next := logger.NextLevel(k.Log.GetLevel())
		k.Log.SetLevel(next)
		fmt.Fprintf(k.Out, "%s %s\n", okColor.Sprint("Log level:"), infoColor.Sprint(strings.ToLower(next.String())))
	case "?":
		k.PrintHelp()
	case "q", "\x03":
		infoColor.Fprintln(k.Out, "Shutting down...")
		k.Quit()
		return false
	}

	// Failures already reached the operator as a notification
	if err != nil {
		k.Log.Debug("Shortcut failed", "key", string(key), "error", err)
	}
	return true
}

// Listen reads single keys from in until quit, EOF or ctx is done. When in
// is a terminal it is switched to unbuffered input for the duration.
func (k *Keyboard) Listen(ctx context.Context, in io.Reader) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		restore, err := enterCbreak(int(f.Fd()))
		if err != nil {
			k.Log.Warn("Keyboard shortcuts unavailable", "error", err)
			return
		}
		defer restore()
	}

	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := in.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !k.Handle(ctx, buf[0]) {
			return
		}
	}
}

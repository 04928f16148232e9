package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/claimboard/internal/config"
	"github.com/abrezinsky/claimboard/internal/console"
	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/internal/session"
	"github.com/abrezinsky/claimboard/internal/websocket"
	"github.com/abrezinsky/claimboard/pkg/ledger"
)

// ShutdownTimeout bounds graceful HTTP shutdown
const ShutdownTimeout = 5 * time.Second

// App holds all console dependencies
type App struct {
	log        logger.Logger
	cfg        config.Config
	client     ledger.Client
	session    *session.Session
	hub        *websocket.Hub
	handlers   *console.Handlers
	consoleURL string
	fanout     *fanout
	closeOnce  sync.Once
}

// New creates and wires a console application around a ledger client
func New(log logger.Logger, cfg config.Config, client ledger.Client, templatesFS, staticFS fs.FS) (*App, error) {
	sess := session.New(log.With("component", "session"), client, session.Options{
		PageSize:        cfg.HistoryPageSize,
		NotificationTTL: cfg.NotificationTTL,
	})

	hub := websocket.New(log.With("component", "websocket"), sess)
	hub.Start()

	fo := &fanout{hub: hub}
	sess.SetBroadcaster(fo)

	consoleURL := consoleURLFor(cfg.Listen, realNetworkProvider{})

	h, err := console.New(
		sess,
		hub,
		client,
		templatesFS,
		console.NewStaticServer(staticFS),
		log,
		consoleURL,
	)
	if err != nil {
		hub.Stop()
		sess.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		log:        log,
		cfg:        cfg,
		client:     client,
		session:    sess,
		hub:        hub,
		handlers:   h,
		consoleURL: consoleURL,
		fanout:     fo,
	}, nil
}

// NewHTTPLedgerClient builds the ledger client described by cfg
func NewHTTPLedgerClient(cfg config.Config, log logger.Logger) *ledger.HTTPClient {
	return ledger.NewHTTPClientWithHTTPClient(
		cfg.APIBaseURL,
		&http.Client{Timeout: cfg.RequestTimeout},
		log.With("component", "ledger"),
	)
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Session exposes the client state for keyboard shortcuts
func (a *App) Session() *session.Session {
	return a.session
}

// ConsoleURL is the LAN address the console is reachable at
func (a *App) ConsoleURL() string {
	return a.consoleURL
}

// OnNotification registers fn to run once for every new notification
func (a *App) OnNotification(fn func(models.Notification)) {
	a.fanout.setEcho(fn)
}

// Close stops the feed and cancels pending timers. Safe to call twice.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.hub.Stop()
		a.session.Close()
	})
}

// Run serves the console on the configured address and issues the initial
// loads. It returns when ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Listen, err)
	}

	a.log.Info("Console starting", "url", a.consoleURL, "ledger", a.client.BaseURL())

	go func() {
		if err := a.session.Start(ctx); err != nil {
			a.log.Warn("Initial load incomplete", "error", err)
		}
	}()

	return serve(ctx, a.log, ln, a.Router())
}

// serve runs handler on ln until ctx is done, then shuts down gracefully
func serve(ctx context.Context, log logger.Logger, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// fanout forwards snapshots to the websocket hub and echoes each new
// notification once
type fanout struct {
	hub *websocket.Hub

	mu      sync.Mutex
	echo    func(models.Notification)
	lastSeq uint64
}

func (f *fanout) setEcho(fn func(models.Notification)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.echo = fn
}

func (f *fanout) BroadcastSnapshot(snap models.Snapshot) {
	f.hub.BroadcastSnapshot(snap)

	n := snap.Notification
	if n == nil {
		return
	}
	f.mu.Lock()
	echo := f.echo
	fresh := n.Seq > f.lastSeq
	if fresh {
		f.lastSeq = n.Seq
	}
	f.mu.Unlock()

	if fresh && echo != nil {
		echo(*n)
	}
}

// consoleURLFor turns a listen address into a URL other devices on the LAN
// can open. An explicit host is kept as is.
func consoleURLFor(listen string, provider networkProvider) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://localhost" + listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = getPreferredIP(provider)
	}
	return "http://" + net.JoinHostPort(host, port)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider lists network interfaces (swapped out in tests)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges. Falls back to localhost.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}

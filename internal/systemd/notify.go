// Package systemd reports service state to systemd through sd_notify.
package systemd

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/smazurov/stripnode/internal/logging"
)

// Notifier sends READY, STOPPING, STATUS and WATCHDOG messages. When the
// process is not run by systemd every call is a no-op.
//
// It also serves as a loop observer: the watchdog is only fed while the main
// loop keeps ticking, so a wedged loop gets the service restarted.
type Notifier struct {
	send     func(state string) (bool, error)
	interval time.Duration
	logger   logging.Logger
	beat     atomic.Bool
}

// NewNotifier reads the watchdog interval from the environment systemd sets.
func NewNotifier(logger logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Discard()
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("Ignoring invalid watchdog settings", "error", err)
		interval = 0
	}
	return &Notifier{
		send: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		interval: interval,
		logger:   logger,
	}
}

// Ready tells systemd startup finished.
func (n *Notifier) Ready() { n.notify(daemon.SdNotifyReady) }

// Stopping tells systemd shutdown began.
func (n *Notifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

// Status sets the free-form status line shown by systemctl.
func (n *Notifier) Status(msg string) { n.notify("STATUS=" + msg) }

// ObserveTick records that the loop is alive.
func (n *Notifier) ObserveTick(error) { n.beat.Store(true) }

// ObserveConnection is part of the loop observer contract.
func (n *Notifier) ObserveConnection(string) {}

// WatchdogInterval is zero when systemd did not enable the watchdog.
func (n *Notifier) WatchdogInterval() time.Duration { return n.interval }

// RunWatchdog pings systemd at half the watchdog interval for as long as the
// loop has ticked since the previous ping. It returns when ctx is done.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	if n.interval <= 0 {
		return
	}
	ticker := time.NewTicker(n.interval / 2)
	defer ticker.Stop()

	n.logger.Info("Watchdog enabled", "interval", n.interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n.beat.Swap(false) {
				n.notify(daemon.SdNotifyWatchdog)
			} else {
				n.logger.Warn("Main loop has not ticked, withholding watchdog ping")
			}
		}
	}
}

func (n *Notifier) notify(state string) {
	sent, err := n.send(state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify", "state", state)
	}
}

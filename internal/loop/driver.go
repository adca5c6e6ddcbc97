// Package loop runs the single-threaded control loop: serve at most one
// connection, then tick the animation engine, once per iteration.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/router"
	"github.com/smazurov/stripnode/internal/transport"
	"github.com/smazurov/stripnode/internal/wire"
)

// Listener hands the loop ready connections without blocking.
type Listener interface {
	Poll() (transport.Conn, bool)
}

// Dispatcher turns a complete request into a response.
type Dispatcher interface {
	Dispatch(req *wire.Request) wire.Response
}

// Ticker renders and writes one frame.
type Ticker interface {
	Tick(now time.Time) error
}

// Observer is told about every tick and finished connection.
type Observer interface {
	ObserveTick(err error)
	ObserveConnection(outcome string)
}

// Observers fans ticks and connection outcomes out to several observers.
type Observers []Observer

func (all Observers) ObserveTick(err error) {
	for _, o := range all {
		o.ObserveTick(err)
	}
}

func (all Observers) ObserveConnection(outcome string) {
	for _, o := range all {
		o.ObserveConnection(outcome)
	}
}

// Connection outcomes reported to the Observer.
const (
	OutcomeServed     = "served"
	OutcomeEmpty      = "empty"
	OutcomeMalformed  = "malformed"
	OutcomeTooLarge   = "too_large"
	OutcomeTimeout    = "timeout"
	OutcomeReadError  = "read_error"
	OutcomeWriteError = "write_error"
)

// Options bounds the work of one iteration. Zero values take defaults.
type Options struct {
	Limits wire.Limits
	// ByteBudget caps bytes read from a connection per iteration.
	ByteBudget int
	// StallTimeout is how long a connection may take to send a full request.
	StallTimeout time.Duration
}

// DefaultOptions returns the loop defaults.
func DefaultOptions() Options {
	return Options{
		Limits:       wire.DefaultLimits(),
		ByteBudget:   512,
		StallTimeout: 2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ByteBudget <= 0 {
		o.ByteBudget = d.ByteBudget
	}
	if o.StallTimeout <= 0 {
		o.StallTimeout = d.StallTimeout
	}
	return o
}

type session struct {
	conn    transport.Conn
	parser  *wire.Parser
	started time.Time
}

// Driver owns the per-connection state carried between iterations.
type Driver struct {
	listener Listener
	router   Dispatcher
	engine   Ticker
	observer Observer
	logger   logging.Logger
	opts     Options

	current *session
	buf     []byte
	// frameErr is the last frame write error, used to log only transitions.
	frameErr error
}

// New builds a driver. observer may be nil.
func New(listener Listener, r Dispatcher, engine Ticker, observer Observer, opts Options, logger logging.Logger) *Driver {
	if logger == nil {
		logger = logging.Discard()
	}
	opts = opts.withDefaults()
	return &Driver{
		listener: listener,
		router:   r,
		engine:   engine,
		observer: observer,
		logger:   logger,
		opts:     opts,
		buf:      make([]byte, min(opts.ByteBudget, 512)),
	}
}

// Iterate runs one loop iteration at now. Any request completed in this
// iteration is applied before the tick renders.
func (d *Driver) Iterate(now time.Time) {
	d.serve(now)
	d.tick(now)
}

// Run iterates every interval until ctx is cancelled.
func (d *Driver) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("loop interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer d.abandon()

	d.logger.Info("Main loop started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Main loop stopped")
			return nil
		case now := <-ticker.C:
			d.Iterate(now)
		}
	}
}

func (d *Driver) tick(now time.Time) {
	err := d.engine.Tick(now)
	if d.observer != nil {
		d.observer.ObserveTick(err)
	}
	switch {
	case err != nil && d.frameErr == nil:
		d.logger.Warn("Strip write failing", "error", err)
	case err == nil && d.frameErr != nil:
		d.logger.Info("Strip write recovered")
	}
	d.frameErr = err
}

func (d *Driver) serve(now time.Time) {
	if d.current == nil {
		conn, ok := d.listener.Poll()
		if !ok {
			return
		}
		d.current = &session{conn: conn, parser: wire.NewParser(d.opts.Limits), started: now}
		d.logger.Debug("Connection accepted", "conn_id", conn.ID())
	}
	s := d.current

	for budget := d.opts.ByteBudget; budget > 0; {
		n, err := s.conn.Read(d.buf[:min(len(d.buf), budget)])
		budget -= n

		if n > 0 {
			req, perr := s.parser.Feed(d.buf[:n])
			if perr != nil {
				d.reject(perr)
				return
			}
			if req != nil {
				d.respond(d.router.Dispatch(req), OutcomeServed)
				return
			}
		}

		if errors.Is(err, io.EOF) {
			d.peerClosed()
			return
		}
		if err != nil {
			d.logger.Debug("Connection read failed", "conn_id", s.conn.ID(), "error", err)
			d.finish(OutcomeReadError)
			return
		}
		if n == 0 {
			break
		}
	}

	if now.Sub(s.started) >= d.opts.StallTimeout {
		d.logger.Debug("Connection stalled", "conn_id", s.conn.ID())
		d.respond(wire.Text(http.StatusRequestTimeout,
			fmt.Sprintf("Request Timeout: no complete request within %s", d.opts.StallTimeout)), OutcomeTimeout)
	}
}

func (d *Driver) peerClosed() {
	req, err := d.current.parser.Close()
	switch {
	case err != nil:
		d.reject(err)
	case req != nil:
		d.respond(d.router.Dispatch(req), OutcomeServed)
	default:
		d.finish(OutcomeEmpty)
	}
}

func (d *Driver) reject(err error) {
	d.logger.Debug("Request parse failed", "conn_id", d.current.conn.ID(), "error", err)
	outcome := OutcomeMalformed
	if errors.Is(err, wire.ErrRequestTooLarge) {
		outcome = OutcomeTooLarge
	}
	d.respond(router.ErrorResponse(err), outcome)
}

func (d *Driver) respond(resp wire.Response, outcome string) {
	if _, err := resp.WriteTo(d.current.conn); err != nil {
		d.logger.Debug("Response write failed", "conn_id", d.current.conn.ID(), "error", err)
		outcome = OutcomeWriteError
	}
	d.finish(outcome)
}

func (d *Driver) finish(outcome string) {
	if err := d.current.conn.Close(); err != nil {
		d.logger.Debug("Connection close failed", "conn_id", d.current.conn.ID(), "error", err)
	}
	if d.observer != nil {
		d.observer.ObserveConnection(outcome)
	}
	d.current = nil
}

// abandon closes an in-flight connection when the loop stops.
func (d *Driver) abandon() {
	if d.current != nil {
		_ = d.current.conn.Close()
		d.current = nil
	}
}

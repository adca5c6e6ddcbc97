// Package transport adapts TCP sockets to the polling main loop.
//
// The loop never blocks on the network: an accept goroutine queues new
// connections and one reader goroutine per connection buffers incoming
// bytes, so Poll and Conn.Read only hand over what has already arrived.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/wire"
)

// Conn is one client connection as seen by the main loop.
type Conn interface {
	// Read copies bytes that have already arrived into p and never waits.
	// It returns 0, nil when nothing is pending and io.EOF once the peer
	// has closed and everything was read.
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	// ID identifies the connection in logs.
	ID() string
}

// Options tunes a Listener. Zero values take defaults.
type Options struct {
	// Backlog is how many accepted connections may wait for the loop.
	Backlog int
	// WriteTimeout bounds a single response write.
	WriteTimeout time.Duration
	// ChunkSize is the reader goroutine's read size.
	ChunkSize int
}

func (o Options) withDefaults() Options {
	if o.Backlog <= 0 {
		o.Backlog = 8
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 500 * time.Millisecond
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 512
	}
	return o
}

// Listener accepts TCP connections in the background and hands them to the
// loop one at a time through Poll.
type Listener struct {
	ln     net.Listener
	opts   Options
	logger logging.Logger
	conns  chan *tcpConn
	wg     sync.WaitGroup
}

// Listen starts accepting on addr.
func Listen(addr string, opts Options, logger logging.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	opts = opts.withDefaults()
	l := &Listener{
		ln:     ln,
		opts:   opts,
		logger: logger,
		conns:  make(chan *tcpConn, opts.Backlog),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	logger.Info("Control port listening", "addr", ln.Addr().String())
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Poll returns the next queued connection, if any, without waiting.
func (l *Listener) Poll() (Conn, bool) {
	select {
	case c := <-l.conns:
		return c, true
	default:
		return nil, false
	}
}

// Close stops accepting and closes connections the loop never picked up.
func (l *Listener) Close() error {
	err := l.ln.Close()
	l.wg.Wait()
	for {
		select {
		case c := <-l.conns:
			_ = c.Close()
		default:
			return err
		}
	}
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Warn("Accept failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		c := newConn(nc, l.opts)
		select {
		case l.conns <- c:
			l.logger.Debug("Connection queued", "conn_id", c.id, "remote", nc.RemoteAddr().String())
		default:
			l.logger.Warn("Connection backlog full, rejecting", "remote", nc.RemoteAddr().String())
			_, _ = wire.Text(http.StatusServiceUnavailable, "Service Unavailable: busy").WriteTo(c)
			_ = c.Close()
		}
	}
}

type tcpConn struct {
	nc           net.Conn
	id           string
	writeTimeout time.Duration

	chunks  chan []byte
	pending []byte
	// readErr is written by the reader goroutine before it closes chunks.
	readErr error

	closed    chan struct{}
	closeOnce sync.Once
}

func newConn(nc net.Conn, opts Options) *tcpConn {
	c := &tcpConn{
		nc:           nc,
		id:           uuid.NewString(),
		writeTimeout: opts.WriteTimeout,
		chunks:       make(chan []byte, 4),
		closed:       make(chan struct{}),
	}
	go c.readLoop(opts.ChunkSize)
	return c
}

func (c *tcpConn) readLoop(size int) {
	defer close(c.chunks)
	for {
		buf := make([]byte, size)
		n, err := c.nc.Read(buf)
		if n > 0 {
			select {
			case c.chunks <- buf[:n]:
			case <-c.closed:
				return
			}
		}
		if err != nil {
			c.readErr = err
			return
		}
	}
}

func (c *tcpConn) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(c.pending) == 0 {
			select {
			case chunk, ok := <-c.chunks:
				if !ok {
					if n > 0 {
						return n, nil
					}
					return 0, c.endErr()
				}
				c.pending = chunk
			default:
				return n, nil
			}
		}
		k := copy(p[n:], c.pending)
		c.pending = c.pending[k:]
		n += k
	}
	return n, nil
}

// endErr reports a peer close as io.EOF and keeps other read errors.
func (c *tcpConn) endErr() error {
	if c.readErr == nil || errors.Is(c.readErr, io.EOF) || errors.Is(c.readErr, net.ErrClosed) {
		return io.EOF
	}
	return c.readErr
}

func (c *tcpConn) Write(p []byte) (int, error) {
	if err := c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return 0, err
	}
	return c.nc.Write(p)
}

func (c *tcpConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.nc.Close()
	})
	return err
}

func (c *tcpConn) ID() string { return c.id }

package wire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type parseState uint8

const (
	stateRequestLine parseState = iota
	stateHeaders
	stateBody
	stateDone
	stateFailed
)

// Parser accumulates the bytes of one request across any number of Feed
// calls. It holds partial lines between calls, so the caller can hand it
// whatever happens to be readable and come back later for the rest.
type Parser struct {
	limits Limits
	state  parseState
	err    error

	started     bool
	line        []byte
	headerBytes int

	contentLength    int
	sawContentLength bool

	req Request
}

// NewParser returns a parser for a single request. Zero limits take defaults.
func NewParser(limits Limits) *Parser {
	return &Parser{limits: limits.withDefaults()}
}

// Feed consumes b. It returns the request once it is complete, (nil, nil)
// while more bytes are needed, or an error wrapping ErrMalformedRequest or
// ErrRequestTooLarge. Bytes after a complete request are ignored.
func (p *Parser) Feed(b []byte) (*Request, error) {
	switch p.state {
	case stateDone:
		return &p.req, nil
	case stateFailed:
		return nil, p.err
	}
	if len(b) > 0 {
		p.started = true
	}

	for len(b) > 0 {
		switch p.state {
		case stateRequestLine, stateHeaders:
			i := bytes.IndexByte(b, '\n')
			chunk := b
			if i >= 0 {
				chunk = b[:i+1]
			}
			p.headerBytes += len(chunk)
			if p.headerBytes > p.limits.MaxHeaderBytes {
				return p.fail(fmt.Errorf("%w: header section exceeds %d bytes", ErrRequestTooLarge, p.limits.MaxHeaderBytes))
			}
			p.line = append(p.line, chunk...)
			b = b[len(chunk):]
			if i < 0 {
				return nil, nil
			}

			line := bytes.TrimRight(p.line, "\r\n")
			var err error
			if p.state == stateRequestLine {
				err = p.parseRequestLine(line)
			} else {
				err = p.parseHeaderLine(line)
			}
			p.line = p.line[:0]
			if err != nil {
				return p.fail(err)
			}

		case stateBody:
			n := min(p.contentLength-len(p.req.Body), len(b))
			p.req.Body = append(p.req.Body, b[:n]...)
			b = b[n:]
			if len(p.req.Body) == p.contentLength {
				p.state = stateDone
			}
		}

		if p.state == stateDone {
			return &p.req, nil
		}
	}
	return nil, nil
}

// Close tells the parser the peer closed the connection. A connection that
// sent nothing yields (nil, nil); a partial request is malformed.
func (p *Parser) Close() (*Request, error) {
	switch {
	case p.state == stateDone:
		return &p.req, nil
	case p.state == stateFailed:
		return nil, p.err
	case !p.started:
		return nil, nil
	}
	return p.fail(fmt.Errorf("%w: connection closed mid-request", ErrMalformedRequest))
}

func (p *Parser) fail(err error) (*Request, error) {
	p.state = stateFailed
	p.err = err
	p.line = nil
	return nil, err
}

func (p *Parser) parseRequestLine(line []byte) error {
	// Leading blank lines before a request line are tolerated.
	if len(line) == 0 {
		return nil
	}

	fields := strings.Fields(string(line))
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}

	method, target := fields[0], fields[1]
	if !isMethodToken(method) {
		return fmt.Errorf("%w: bad method %q", ErrMalformedRequest, method)
	}
	if len(target) > p.limits.MaxPathBytes {
		return fmt.Errorf("%w: path exceeds %d bytes", ErrRequestTooLarge, p.limits.MaxPathBytes)
	}
	if !strings.HasPrefix(target, "/") {
		return fmt.Errorf("%w: path must start with '/': %q", ErrMalformedRequest, target)
	}

	p.req.Method = method
	p.req.Path, p.req.Query, _ = strings.Cut(target, "?")

	// "METHOD PATH" with no version carries no headers or body.
	if len(fields) == 2 {
		p.state = stateDone
		return nil
	}

	if !strings.HasPrefix(fields[2], "HTTP/1.") {
		return fmt.Errorf("%w: unsupported protocol %q", ErrMalformedRequest, fields[2])
	}
	p.req.Proto = fields[2]
	p.state = stateHeaders
	return nil
}

func (p *Parser) parseHeaderLine(line []byte) error {
	if len(line) == 0 {
		if p.contentLength > 0 {
			p.req.Body = make([]byte, 0, p.contentLength)
			p.state = stateBody
		} else {
			p.state = stateDone
		}
		return nil
	}
	if line[0] == ' ' || line[0] == '\t' {
		return fmt.Errorf("%w: folded header line", ErrMalformedRequest)
	}

	name, value, ok := strings.Cut(string(line), ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("%w: bad header line %q", ErrMalformedRequest, line)
	}
	value = strings.TrimSpace(value)

	switch {
	case strings.EqualFold(name, "Content-Length"):
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || strings.ContainsAny(value, "+-") {
			return fmt.Errorf("%w: bad Content-Length %q", ErrMalformedRequest, value)
		}
		if p.sawContentLength && n != p.contentLength {
			return fmt.Errorf("%w: conflicting Content-Length headers", ErrMalformedRequest)
		}
		if n > p.limits.MaxBodyBytes {
			return fmt.Errorf("%w: body of %d bytes exceeds %d", ErrRequestTooLarge, n, p.limits.MaxBodyBytes)
		}
		p.contentLength = n
		p.sawContentLength = true
	case strings.EqualFold(name, "Transfer-Encoding"):
		return fmt.Errorf("%w: Transfer-Encoding %q not supported", ErrMalformedRequest, value)
	}
	return nil
}

func isMethodToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

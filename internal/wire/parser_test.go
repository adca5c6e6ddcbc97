package wire

import (
	"errors"
	"strings"
	"testing"
)

func feedAll(t *testing.T, p *Parser, chunks ...string) (*Request, error) {
	t.Helper()
	for i, c := range chunks {
		req, err := p.Feed([]byte(c))
		if err != nil || req != nil {
			if i != len(chunks)-1 && req != nil {
				t.Fatalf("request completed early at chunk %d of %d", i+1, len(chunks))
			}
			return req, err
		}
	}
	return nil, nil
}

func TestParserCompleteRequests(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		method string
		path   string
		query  string
		body   string
	}{
		{
			name:   "get with headers",
			input:  "GET /strip/status HTTP/1.1\r\nHost: strip\r\nAccept: */*\r\n\r\n",
			method: "GET", path: "/strip/status",
		},
		{
			name:   "put with body",
			input:  "PUT /strip/mode HTTP/1.1\r\nContent-Length: 11\r\n\r\nSCANNER 100",
			method: "PUT", path: "/strip/mode", body: "SCANNER 100",
		},
		{
			name:   "bare LF line endings",
			input:  "PUT /strip/color HTTP/1.0\ncontent-length: 7\n\n{\"r\":1}",
			method: "PUT", path: "/strip/color", body: `{"r":1}`,
		},
		{
			name:   "request line without version",
			input:  "GET /strip/mode\r\n",
			method: "GET", path: "/strip/mode",
		},
		{
			name:   "query string split off",
			input:  "GET /strip/color?fresh=1 HTTP/1.1\r\n\r\n",
			method: "GET", path: "/strip/color", query: "fresh=1",
		},
		{
			name:   "leading blank line tolerated",
			input:  "\r\nGET / HTTP/1.1\r\n\r\n",
			method: "GET", path: "/",
		},
		{
			name:   "unknown method still parses",
			input:  "DELETE /strip HTTP/1.1\r\n\r\n",
			method: "DELETE", path: "/strip",
		},
		{
			name:   "zero content length",
			input:  "PUT /strip/status/on HTTP/1.1\r\nContent-Length: 0\r\n\r\n",
			method: "PUT", path: "/strip/status/on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewParser(Limits{}).Feed([]byte(tt.input))
			if err != nil {
				t.Fatalf("Feed error: %v", err)
			}
			if req == nil {
				t.Fatal("expected a complete request")
			}
			if req.Method != tt.method || req.Path != tt.path || req.Query != tt.query || string(req.Body) != tt.body {
				t.Errorf("got %s %s ?%s body=%q, want %s %s ?%s body=%q",
					req.Method, req.Path, req.Query, req.Body, tt.method, tt.path, tt.query, tt.body)
			}
		})
	}
}

func TestParserIncrementalBytes(t *testing.T) {
	input := "PUT /strip/color HTTP/1.1\r\nContent-Length: 26\r\n\r\n{\"r\":36,\"g\":113,\"b\":255}\n\n"
	// Body is 26 bytes: the JSON object plus two newlines.
	p := NewParser(Limits{})
	var req *Request
	for i := 0; i < len(input); i++ {
		got, err := p.Feed([]byte{input[i]})
		if err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
		if got != nil {
			if i != len(input)-1 {
				t.Fatalf("completed at byte %d of %d", i, len(input))
			}
			req = got
		}
	}
	if req == nil {
		t.Fatal("request never completed")
	}
	if string(req.Body) != "{\"r\":36,\"g\":113,\"b\":255}\n\n" {
		t.Errorf("body = %q", req.Body)
	}
}

func TestParserSplitAcrossFeeds(t *testing.T) {
	p := NewParser(Limits{})
	req, err := feedAll(t, p, "PU", "T /strip/mo", "de HTTP/1.1\r", "\nContent-Len", "gth: 9\r\n\r\nBLINK", " 250")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req == nil || string(req.Body) != "BLINK 250" {
		t.Fatalf("got %+v", req)
	}

	// Further bytes after completion are ignored.
	again, err := p.Feed([]byte("GET / HTTP/1.1\r\n\r\n"))
	if err != nil || again == nil || again.Path != "/strip/mode" {
		t.Errorf("Feed after completion = %+v, %v", again, err)
	}
}

func TestParserIncompleteReturnsNil(t *testing.T) {
	p := NewParser(Limits{})
	for _, chunk := range []string{"", "GET /strip", "/status HTTP/1.1\r\n", "Host: x\r\n"} {
		req, err := p.Feed([]byte(chunk))
		if req != nil || err != nil {
			t.Fatalf("Feed(%q) = %+v, %v; want nil, nil", chunk, req, err)
		}
	}
}

func TestParserErrors(t *testing.T) {
	long := strings.Repeat("a", 200)
	tests := []struct {
		name  string
		input string
		limit Limits
		want  error
	}{
		{"single token", "GET\r\n", Limits{}, ErrMalformedRequest},
		{"too many tokens", "GET / HTTP/1.1 extra\r\n", Limits{}, ErrMalformedRequest},
		{"lower-case method", "get / HTTP/1.1\r\n", Limits{}, ErrMalformedRequest},
		{"relative path", "GET strip HTTP/1.1\r\n", Limits{}, ErrMalformedRequest},
		{"bad protocol", "GET / SPDY/3\r\n", Limits{}, ErrMalformedRequest},
		{"header without colon", "GET / HTTP/1.1\r\nbogus\r\n", Limits{}, ErrMalformedRequest},
		{"folded header", "GET / HTTP/1.1\r\nA: b\r\n  c\r\n", Limits{}, ErrMalformedRequest},
		{"bad content length", "PUT / HTTP/1.1\r\nContent-Length: ten\r\n", Limits{}, ErrMalformedRequest},
		{"signed content length", "PUT / HTTP/1.1\r\nContent-Length: +5\r\n", Limits{}, ErrMalformedRequest},
		{"conflicting content length", "PUT / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 6\r\n", Limits{}, ErrMalformedRequest},
		{"chunked body", "PUT / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n", Limits{}, ErrMalformedRequest},
		{"path too long", "GET /" + long + " HTTP/1.1\r\n", Limits{}, ErrRequestTooLarge},
		{"body too long", "PUT /strip/mode HTTP/1.1\r\nContent-Length: 300\r\n", Limits{}, ErrRequestTooLarge},
		{"header section too long", "GET / HTTP/1.1\r\nX: " + long + "\r\n", Limits{MaxHeaderBytes: 64}, ErrRequestTooLarge},
		{"unterminated line too long", "GET /" + long, Limits{MaxHeaderBytes: 64}, ErrRequestTooLarge},
		{"custom body limit", "PUT / HTTP/1.1\r\nContent-Length: 9\r\n", Limits{MaxBodyBytes: 8}, ErrRequestTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(tt.limit)
			req, err := p.Feed([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Feed error = %v, want %v", err, tt.want)
			}
			if req != nil {
				t.Errorf("expected no request, got %+v", req)
			}

			// The parser stays failed.
			if _, again := p.Feed([]byte("\r\n\r\n")); !errors.Is(again, tt.want) {
				t.Errorf("second Feed error = %v, want %v", again, tt.want)
			}
		})
	}
}

func TestParserClose(t *testing.T) {
	t.Run("nothing received", func(t *testing.T) {
		req, err := NewParser(Limits{}).Close()
		if req != nil || err != nil {
			t.Errorf("Close() = %+v, %v; want nil, nil", req, err)
		}
	})

	t.Run("truncated request line", func(t *testing.T) {
		p := NewParser(Limits{})
		if _, err := p.Feed([]byte("GET /strip")); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Close(); !errors.Is(err, ErrMalformedRequest) {
			t.Errorf("Close() error = %v, want ErrMalformedRequest", err)
		}
	})

	t.Run("truncated body", func(t *testing.T) {
		p := NewParser(Limits{})
		if _, err := p.Feed([]byte("PUT /strip/mode HTTP/1.1\r\nContent-Length: 11\r\n\r\nSCAN")); err != nil {
			t.Fatal(err)
		}
		if _, err := p.Close(); !errors.Is(err, ErrMalformedRequest) {
			t.Errorf("Close() error = %v, want ErrMalformedRequest", err)
		}
	})

	t.Run("complete request", func(t *testing.T) {
		p := NewParser(Limits{})
		if _, err := p.Feed([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
			t.Fatal(err)
		}
		req, err := p.Close()
		if err != nil || req == nil || req.Path != "/" {
			t.Errorf("Close() = %+v, %v", req, err)
		}
	})
}

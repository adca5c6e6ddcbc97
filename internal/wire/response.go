package wire

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Content types used on the control port.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// Response is built by the router and written once to the connection.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Text builds a plain-text response.
func Text(status int, body string) Response {
	return Response{Status: status, ContentType: ContentTypeText, Body: []byte(body)}
}

// JSON builds a response around an already-encoded JSON body.
func JSON(status int, body []byte) Response {
	return Response{Status: status, ContentType: ContentTypeJSON, Body: body}
}

// Empty builds a response with no body.
func Empty(status int) Response {
	return Response{Status: status}
}

// Encode renders the response as HTTP/1.1 bytes. The connection is always
// closed after one response, which the headers announce.
func (r Response) Encode() []byte {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	buf := make([]byte, 0, 96+len(r.Body))
	buf = fmt.Appendf(buf, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	if r.ContentType != "" {
		buf = append(buf, "Content-Type: "...)
		buf = append(buf, r.ContentType...)
		buf = append(buf, "\r\n"...)
	}
	buf = append(buf, "Content-Length: "...)
	buf = strconv.AppendInt(buf, int64(len(r.Body)), 10)
	buf = append(buf, "\r\nConnection: close\r\n\r\n"...)
	return append(buf, r.Body...)
}

// WriteTo writes the encoded response to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Encode())
	return int64(n), err
}

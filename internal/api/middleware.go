package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/stripnode/internal/logging"
)

// The admin API is read-only, so CORS only ever has to allow reads.
const (
	corsAllowMethods = "GET, HEAD, OPTIONS"
	corsAllowHeaders = "Accept, Content-Type, Last-Event-ID"
	corsMaxAge       = "86400"
)

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}

// CORSMiddleware adds CORS headers to every API response.
func CORSMiddleware(ctx huma.Context, next func(huma.Context)) {
	ctx.SetHeader("Access-Control-Allow-Origin", "*")
	ctx.SetHeader("Access-Control-Allow-Methods", corsAllowMethods)
	ctx.SetHeader("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.SetHeader("Access-Control-Max-Age", corsMaxAge)
	next(ctx)
}

// addPreflightHandler answers OPTIONS on the mux, since huma only sees
// requests that match a registered operation.
func addPreflightHandler(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		setCORSHeaders(w.Header())
		w.WriteHeader(http.StatusNoContent)
	})
}

// HTTPLoggingMiddleware logs admin requests with a level based on status.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("api")

	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if q := ctx.URL().RawQuery; q != "" {
		attrs = append(attrs, slog.String("query", q))
	}

	next(ctx)

	status := ctx.Status()
	attrs = append(attrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	level := slog.LevelDebug
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	logger.LogAttrs(ctx.Context(), level, "Admin request completed", attrs...)
}

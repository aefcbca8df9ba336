package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/feedview/internal/feedapi"
)

// upstreamContext forwards the caller's bearer token to the feed API so
// upstream sees the viewer's own identity (per-user reaction state,
// private chats). The token was already verified by the auth middleware.
func upstreamContext(r *http.Request) context.Context {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return feedapi.WithBearer(r.Context(), strings.TrimSpace(header[7:]))
	}
	return r.Context()
}

// pageOpts reads cursor pagination query parameters. pageSize is clamped
// to [1, 100] with the given default.
func pageOpts(r *http.Request, defaultSize int) feedapi.PageOpts {
	opts := feedapi.PageOpts{
		Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		PageSize: defaultSize,
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			opts.PageSize = n
		}
	}
	return opts
}

package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/moul/http2curl"
)

const redacted = "***REDACTED***"

// logCurl writes the outgoing request as a cURL command at debug level.
// The command is rendered from a copy so the real body is not consumed.
func (t *HTTPTransport) logCurl(ctx context.Context, httpReq *http.Request, payload []byte) {
	if t.logger == nil {
		return
	}
	cmd, err := curlCommand(httpReq, payload)
	if err != nil {
		t.logger.DebugFCtx(ctx, "unable to render request as curl: %v", err)
		return
	}
	t.logger.DebugFCtx(ctx, "%s", cmd)
}

func curlCommand(httpReq *http.Request, payload []byte) (string, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	dup, err := http.NewRequest(httpReq.Method, redactedURL(httpReq.URL), body)
	if err != nil {
		return "", err
	}
	dup.Header = httpReq.Header.Clone()
	if dup.Header.Get("Authorization") != "" {
		dup.Header.Set("Authorization", redacted)
	}
	cmd, err := http2curl.GetCurlCommand(dup)
	if err != nil {
		return "", err
	}
	return cmd.String(), nil
}

// redactedURL masks a userinfo password the same way as the Authorization header.
func redactedURL(u *url.URL) string {
	if u.User == nil {
		return u.String()
	}
	masked := *u
	if _, ok := u.User.Password(); ok {
		masked.User = url.UserPassword(u.User.Username(), redacted)
	}
	return masked.String()
}

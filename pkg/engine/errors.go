package engine

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is matched by every *InvalidURLError.
var ErrInvalidURL = errors.New("engine: invalid url")

// InvalidURLError reports a target URL that is not an absolute http(s) URL.
// It is the only error the engine produces itself; transport failures are
// passed through untouched.
// URL holds the input as given; Error masks any userinfo password.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	shown := redactRawURL(e.URL)
	if e.Reason == "" {
		return fmt.Sprintf("engine: invalid url %q", shown)
	}
	return fmt.Sprintf("engine: invalid url %q: %s", shown, e.Reason)
}

// redactRawURL masks the password of raw, even when raw does not parse.
func redactRawURL(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Redacted()
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	authority, path := rest, ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return raw
	}
	user, _, hasPassword := strings.Cut(authority[:at], ":")
	if !hasPassword {
		return raw
	}
	return scheme + "://" + user + ":xxxxx" + authority[at:] + path
}

// Is makes errors.Is(err, ErrInvalidURL) true.
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

// IsInvalidURL checks if an error is an invalid URL error.
func IsInvalidURL(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

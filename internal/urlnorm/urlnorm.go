// Package urlnorm turns user-supplied website URLs into deduplication keys.
package urlnorm

import (
	"net/url"
	"strings"

	"github.com/toolgrid/toolgrid/internal/domain"
)

// Result holds the normalized forms of a website URL
type Result struct {
	// Key is the canonical deduplication key: lower-cased host without a
	// leading "www." plus the trimmed path.
	Key string

	// Display is the value shown back to users. Equal to Key unless the
	// key collapsed to empty, in which case it falls back to the host.
	Display string

	// Host is the lower-cased host without a leading "www."
	Host string
}

// Normalize canonicalizes a raw website URL. Two URLs that differ only in
// scheme, case, a leading "www." or trailing slashes produce the same Key.
func Normalize(raw string) (Result, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{}, domain.ErrEmptyURL
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return Result{}, domain.ErrInvalidURL
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return Result{}, domain.ErrInvalidURL
	}

	path := parsed.EscapedPath()
	if path == "/" {
		path = ""
	} else {
		path = strings.TrimRight(path, "/")
	}
	path = strings.ToLower(path)

	key := host + path
	display := key
	if display == "" {
		display = host
	}

	return Result{Key: key, Display: display, Host: host}, nil
}

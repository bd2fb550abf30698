// Package fetcher retrieves benchmark input files from local paths, HTTP(S)
// and FTP locations, and parses tabular question files.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures remote downloads.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	RateLimit   rate.Limit
}

// IsRemote reports whether location is an http, https or ftp URL.
func IsRemote(location string) bool {
	switch scheme(location) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// Ext returns the lowercased extension of location, ignoring any URL query.
func Ext(location string) string {
	p := location
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
		return strings.ToLower(path.Ext(p))
	}
	return strings.ToLower(filepath.Ext(p))
}

func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

// For returns the fetcher serving location's scheme, or nil for local paths.
func For(location string, opts Options) Fetcher {
	switch scheme(location) {
	case "http", "https":
		return NewHTTPFetcher(opts)
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: opts.Timeout})
	}
	return nil
}

// Open returns a reader for location. Remote URLs are downloaded, anything
// else is opened as a local file.
func Open(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	if f := For(location, opts); f != nil {
		return f.Download(ctx, location)
	}
	file, err := os.Open(location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", location)
	}
	return file, nil
}

// Localize makes location available as a local file. Remote content is
// copied to a temporary file that cleanup removes; local paths are returned
// as is with a no-op cleanup.
func Localize(ctx context.Context, location string, opts Options) (string, func(), error) {
	if !IsRemote(location) {
		return location, func() {}, nil
	}

	body, err := Open(ctx, location, opts)
	if err != nil {
		return "", nil, err
	}
	defer body.Close() //nolint:errcheck

	tmp, err := os.CreateTemp("", "truthbench-input-*"+Ext(location))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp file")
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, eris.Wrapf(err, "fetcher: copy %s", location)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, eris.Wrap(err, "fetcher: close temp file")
	}
	return tmp.Name(), cleanup, nil
}

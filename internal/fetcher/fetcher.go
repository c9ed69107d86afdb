// Package fetcher locates point-sample tables (local, HTTP, FTP, zipped)
// and parses CSV and XLSX files into points.Table values.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Resolver turns an input location into a local file path.
type Resolver struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewResolver returns a Resolver backed by the default HTTP and FTP fetchers.
func NewResolver(httpOpts HTTPOptions, ftpOpts FTPOptions) *Resolver {
	return &Resolver{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Resolve returns a local path for location. Remote files are downloaded
// into dir and zip archives holding a single file are extracted there.
func (r *Resolver) Resolve(ctx context.Context, location, dir string) (string, error) {
	local := location

	u, err := url.Parse(location)
	if err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		var f Fetcher
		switch u.Scheme {
		case "http", "https":
			f = r.HTTP
		case "ftp":
			f = r.FTP
		default:
			return "", eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
		}
		if f == nil {
			return "", eris.Errorf("fetcher: no fetcher configured for %s", u.Scheme)
		}

		name := path.Base(u.Path)
		if name == "" || name == "/" || name == "." {
			name = "download.csv"
		}
		local = filepath.Join(dir, name)
		n, err := f.DownloadToFile(ctx, location, local)
		if err != nil {
			return "", eris.Wrapf(err, "fetcher: download %s", location)
		}
		zap.L().Info("fetcher: downloaded input",
			zap.String("url", location),
			zap.String("path", local),
			zap.Int64("bytes", n),
		)
	}

	if strings.EqualFold(filepath.Ext(local), ".zip") {
		extracted, err := ExtractTable(local, dir)
		if err != nil {
			return "", err
		}
		local = extracted
	}

	if _, err := os.Stat(local); err != nil {
		return "", eris.Wrapf(err, "fetcher: stat %s", local)
	}
	return local, nil
}

// Package fetcher locates provider spreadsheets (local paths, HTTP(S) or FTP
// URLs) and reads them into importer rows.
package fetcher

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credenciados/internal/importer"
)

// Downloader copies a remote resource to a local file. Returns bytes written.
type Downloader interface {
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures Load.
type Options struct {
	Sheet          int  // XLSX sheet index
	Latin1Fallback bool // decode non-UTF-8 CSV input as ISO-8859-1
	HTTP           HTTPOptions
	FTP            FTPOptions
}

// Table is a parsed spreadsheet.
type Table struct {
	Source string // base file name
	Header []string
	Rows   []importer.RawRow
}

// Load fetches location when it is a URL and parses it by extension.
func Load(ctx context.Context, location string, opts Options) (*Table, error) {
	path, cleanup, err := fetch(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	table, err := ReadFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	table.Source = sourceName(location)
	return table, nil
}

// ReadFile parses a local .csv or .xlsx file.
func ReadFile(ctx context.Context, path string, opts Options) (*Table, error) {
	var (
		records []Record
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = ReadCSV(ctx, path, CSVOptions{LazyQuotes: true, Latin1Fallback: opts.Latin1Fallback})
	case ".xlsx":
		records, err = ReadXLSX(path, XLSXOptions{SheetIndex: opts.Sheet})
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "fetcher: %q", ext)
	}
	if err != nil {
		return nil, err
	}

	header, rows, err := toRawRows(records)
	if err != nil {
		return nil, err
	}
	return &Table{Source: filepath.Base(path), Header: header, Rows: rows}, nil
}

// fetch returns a local path for location. Remote resources are downloaded
// into a temp dir that cleanup removes.
func fetch(ctx context.Context, location string, opts Options) (string, func(), error) {
	noop := func() {}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return location, noop, nil
	}

	var d Downloader
	switch u.Scheme {
	case "http", "https":
		d = NewHTTPFetcher(opts.HTTP)
	case "ftp":
		d = NewFTPFetcher(opts.FTP)
	case "file":
		return u.Path, noop, nil
	default:
		return "", noop, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}

	dir, err := os.MkdirTemp("", "credenciados-*")
	if err != nil {
		return "", noop, eris.Wrap(err, "fetcher: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	dest := filepath.Join(dir, sourceName(location))
	n, err := d.DownloadToFile(ctx, location, dest)
	if err != nil {
		cleanup()
		return "", noop, err
	}
	zap.L().Info("fetcher: downloaded spreadsheet",
		zap.String("url", location),
		zap.Int64("bytes", n),
	)
	return dest, cleanup, nil
}

// sourceName is the base file name of a path or URL.
func sourceName(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		if base := filepath.Base(u.Path); base != "." && base != "/" {
			return base
		}
		return u.Host
	}
	return filepath.Base(location)
}

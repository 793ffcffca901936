package boundary

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/fetcher"
)

// Loader resolves a boundary source (URL or local path) into a Document.
type Loader struct {
	HTTP fetcher.Fetcher
	FTP  fetcher.Fetcher
	// TempDir holds downloads and extracted archives; empty uses os.TempDir.
	TempDir string
}

// NewLoader creates a Loader with the given fetchers.
func NewLoader(httpFetcher, ftpFetcher fetcher.Fetcher) *Loader {
	return &Loader{HTTP: httpFetcher, FTP: ftpFetcher}
}

// Load fetches and decodes source. Failures are returned as-is; the caller
// decides whether to try again.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	log := zap.L().With(zap.String("component", "boundary"), zap.String("source", source))

	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return l.loadRemote(ctx, l.HTTP, source, u.Path, log)
		case "ftp":
			return l.loadRemote(ctx, l.FTP, source, u.Path, log)
		}
	}

	return l.loadLocal(source)
}

func (l *Loader) loadRemote(ctx context.Context, f fetcher.Fetcher, source, urlPath string, log *zap.Logger) (*Document, error) {
	if f == nil {
		return nil, eris.Errorf("boundary: no fetcher configured for %s", source)
	}

	dir, err := os.MkdirTemp(l.TempDir, "boundary-*")
	if err != nil {
		return nil, eris.Wrap(err, "boundary: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	name := path.Base(urlPath)
	if name == "" || name == "/" || name == "." {
		name = "boundary.geojson"
	}
	local := filepath.Join(dir, name)

	n, err := f.DownloadToFile(ctx, source, local)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: download")
	}
	log.Debug("boundary: downloaded", zap.Int64("bytes", n))

	return l.loadLocal(local)
}

func (l *Loader) loadLocal(p string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".zip":
		return l.loadZIP(p)
	case ".shp":
		return ReadShapefile(p)
	}

	file, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open %s", p)
	}
	defer file.Close() //nolint:errcheck

	return Decode(file)
}

func (l *Loader) loadZIP(p string) (*Document, error) {
	dir, err := os.MkdirTemp(l.TempDir, "boundary-zip-*")
	if err != nil {
		return nil, eris.Wrap(err, "boundary: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	files, err := fetcher.ExtractZIP(p, dir)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: extract archive")
	}

	if shpPath, ok := fetcher.FindByExt(files, ".shp"); ok {
		return ReadShapefile(shpPath)
	}
	for _, ext := range []string{".geojson", ".json"} {
		if jsonPath, ok := fetcher.FindByExt(files, ext); ok {
			return l.loadLocal(jsonPath)
		}
	}
	return nil, eris.Errorf("boundary: archive %s holds no .shp or .geojson", p)
}

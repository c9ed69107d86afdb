package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MaxTableBytes caps the uncompressed size of a point table taken from an
// archive.
const MaxTableBytes int64 = 1 << 30

// ExtractTable extracts the point table from a zipped input into destDir and
// returns its path. The archive must hold exactly one entry ReadTable can
// parse. Sidecars such as README files, .prj or .xml metadata, directories
// and macOS resource forks are ignored. The table is written under its base
// name, so nested paths in the archive never escape destDir.
func ExtractTable(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil && !eris.Is(err, zip.ErrInsecurePath) {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var tables []*zip.File
	for _, f := range r.File {
		if isTableEntry(f) {
			tables = append(tables, f)
		}
	}

	switch len(tables) {
	case 0:
		return "", eris.Errorf("zip: %s holds no point table (.csv, .tsv, .txt or .xlsx)", filepath.Base(zipPath))
	case 1:
	default:
		names := make([]string, len(tables))
		for i, f := range tables {
			names[i] = f.Name
		}
		return "", eris.Errorf("zip: %s holds %d point tables (%s), expected one",
			filepath.Base(zipPath), len(tables), strings.Join(names, ", "))
	}

	out, err := extractEntry(tables[0], destDir)
	if err != nil {
		return "", err
	}
	zap.L().Debug("zip: extracted point table",
		zap.String("archive", zipPath),
		zap.String("entry", tables[0].Name),
		zap.Int("entries", len(r.File)),
	)
	return out, nil
}

func isTableEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() {
		return false
	}
	name := path.Clean(strings.ReplaceAll(f.Name, `\`, "/"))
	if strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return isTableFile(base) && !strings.EqualFold(strings.TrimSuffix(base, path.Ext(base)), "readme")
}

func extractEntry(f *zip.File, destDir string) (string, error) {
	if f.UncompressedSize64 > uint64(MaxTableBytes) {
		return "", eris.Errorf("zip: entry %s is %d bytes, limit is %d", f.Name, f.UncompressedSize64, MaxTableBytes)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create directory")
	}
	destPath := filepath.Join(destDir, path.Base(strings.ReplaceAll(f.Name, `\`, "/")))

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, io.LimitReader(rc, MaxTableBytes+1))
	if err != nil {
		return "", eris.Wrap(err, "zip: write file")
	}
	if n > MaxTableBytes {
		return "", eris.Errorf("zip: entry %s exceeds %d bytes", f.Name, MaxTableBytes)
	}
	return destPath, nil
}

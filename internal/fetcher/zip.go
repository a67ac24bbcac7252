package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ExtractZIPFile pulls one named entry out of a ZIP archive into destDir and
// returns its path on disk. Dataset mirrors like the Aqueduct download bundle
// ship a dozen shapefile companions alongside the one CSV we need, so callers
// name the entry rather than unpacking the whole archive.
func ExtractZIPFile(zipPath, entryName, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrapf(err, "zip: open %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.Name != entryName {
			continue
		}
		if f.FileInfo().IsDir() {
			return "", eris.Errorf("zip: entry %q is a directory", entryName)
		}
		return writeZIPEntry(f, destDir)
	}
	return "", eris.Errorf("zip: entry %q not found in %s", entryName, zipPath)
}

func writeZIPEntry(f *zip.File, destDir string) (string, error) {
	// Archive entries are attacker-controlled names; reject anything that
	// would escape destDir.
	if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
		return "", eris.Errorf("zip: refusing entry name %q", f.Name)
	}
	destPath := filepath.Join(destDir, filepath.FromSlash(f.Name))

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrapf(err, "zip: create %s", destPath)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrapf(err, "zip: write %s", destPath)
	}
	return destPath, nil
}

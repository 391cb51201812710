package builder

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// staticExts are the file extensions copied from the static directory.
var staticExts = map[string]bool{
	".css": true, ".js": true, ".txt": true, ".svg": true, ".xml": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
	".woff": true, ".woff2": true, ".json": true, ".webmanifest": true, ".pdf": true,
}

// collectStaticAssets reads every static asset into an artifact keyed by its
// path relative to staticDir. A missing static directory yields nothing.
func collectStaticAssets(staticDir string) ([]artifact, error) {
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		return nil, nil
	}

	var assets []artifact
	err := filepath.WalkDir(staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != staticDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !staticExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		assets = append(assets, artifact{Path: filepath.ToSlash(rel), Kind: "static", Data: data})
		return nil
	})
	return assets, err
}

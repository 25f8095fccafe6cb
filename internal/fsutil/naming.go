package fsutil

import (
	"path/filepath"
	"strings"
)

// BaseName returns the file name up to its first dot, so
// "data/benin-malanville.csv" yields "benin-malanville" and
// "site.2021.csv" yields "site".
func BaseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// OutputPath builds the deterministic result path "{dir}/{base}_{kind}.{ext}".
func OutputPath(dir, base, kind, ext string) string {
	return filepath.Join(dir, base+"_"+kind+"."+ext)
}

// HasExt reports whether path ends in ext, ignoring case. ext includes the dot.
func HasExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}

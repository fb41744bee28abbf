package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// availableName returns path when nothing exists there yet. Otherwise it
// inserts "_<unix-ts>" before the last extension ("a.tar.gz" becomes
// "a.tar_<ts>.gz", "notes" becomes "notes_<ts>") and adds a counter if
// that name is taken too.
func availableName(path string, now time.Time) string {
	if !exists(path) {
		return path
	}

	dir, base := filepath.Split(path)
	stem, ext := splitExt(base)
	ts := now.Unix()

	candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, ts, ext))
	for i := 1; exists(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d_%d%s", stem, ts, i, ext))
	}
	return candidate
}

// splitExt splits at the last dot. A leading dot is part of the stem.
func splitExt(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

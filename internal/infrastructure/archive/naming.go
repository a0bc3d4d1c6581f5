package archive

import (
	"path/filepath"
	"strings"
)

const maxBaseNameLen = 80

// SanitizeFilename strips path separators and characters reserved on
// common filesystems, capping the base name length.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		`"`, "_", "<", "_", ">", "_", "|", "_",
	)
	stem = replacer.Replace(stem)
	if len(stem) > maxBaseNameLen {
		stem = stem[:maxBaseNameLen]
	}
	return stem + strings.ToLower(ext)
}

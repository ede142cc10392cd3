package files

import (
	"path/filepath"
	"strings"
)

// FileMeta is the metadata carried by a file name of the form
// <entity>_<period>.<ext>. Parts beyond the second are ignored.
type FileMeta struct {
	Entity string
	Period string
	Valid  bool
}

// ParseFileMeta splits the file stem on underscores. Names with fewer than
// two non-empty parts do not follow the convention and return Valid false.
func ParseFileMeta(name string) FileMeta {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return FileMeta{}
	}

	return FileMeta{
		Entity: parts[0],
		Period: parts[1],
		Valid:  true,
	}
}

// FileName builds the conventional name for an entity and period
func FileName(entity, period, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return entity + "_" + period + ext
}

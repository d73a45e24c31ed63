package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ComposeEntryName is the archive name of the compose file. It is always
// the last entry.
const ComposeEntryName = "docker-compose.yml"

// ErrUnsafeEntryName indicates an entry name that is not a single file
// name, or that repeats an earlier entry.
var ErrUnsafeEntryName = errors.New("unsafe archive entry name")

type entry struct {
	name string
	data []byte
}

// writeArchive packs entries into a zip in the given order. Every name
// must be a distinct single path component so extraction stays inside the
// target directory.
func writeArchive(entries []entry, modified time.Time) ([]byte, error) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !safeEntryName(e.name) || seen[e.name] {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeEntryName, e.name)
		}
		seen[e.name] = true
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("writing %s to archive: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

func safeEntryName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\:`) {
		return false
	}
	return path.Clean(name) == name
}

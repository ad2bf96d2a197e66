package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Unit names one processable archive file pair: `<prefix>.meta` +
// `<prefix>.bin`, where prefix = "<startSlot>_<endSlot>".
type Unit struct {
	Prefix    string
	StartSlot uint64
	MetaPath  string
	BinPath   string
}

// Scan reads dir once and returns every Unit whose `.meta` and `.bin`
// files both exist as regular files, sorted strictly descending by
// parsed start-slot (newest first). A prefix whose start-slot does not
// parse as a number sorts as if start-slot were 0.
func Scan(dir string) ([]Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	metas := make(map[string]bool)
	bins := make(map[string]bool)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".meta"):
			metas[strings.TrimSuffix(name, ".meta")] = true
		case strings.HasSuffix(name, ".bin"):
			bins[strings.TrimSuffix(name, ".bin")] = true
		}
	}

	var units []Unit
	for prefix := range metas {
		if !bins[prefix] {
			continue
		}
		units = append(units, Unit{
			Prefix:    prefix,
			StartSlot: parseStartSlot(prefix),
			MetaPath:  filepath.Join(dir, prefix+".meta"),
			BinPath:   filepath.Join(dir, prefix+".bin"),
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].StartSlot > units[j].StartSlot })
	return units, nil
}

func parseStartSlot(prefix string) uint64 {
	first := prefix
	if idx := strings.IndexByte(prefix, '_'); idx >= 0 {
		first = prefix[:idx]
	}
	n, err := strconv.ParseUint(first, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

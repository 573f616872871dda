package macos

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var bundleIDPattern = regexp.MustCompile(`<key>CFBundleIdentifier</key>\s*<string>([^<]+)</string>`)

// bundle is an installed .app directory
type bundle struct {
	ID   string
	Name string
	Path string
}

// applicationRoots returns the directories scanned for .app bundles
func applicationRoots() []string {
	roots := []string{"/Applications", "/System/Applications"}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	return roots
}

// scanBundles lists top-level .app bundles under roots. Bundles without a readable
// Info.plist fall back to their directory name as identifier.
func scanBundles(roots []string) []bundle {
	seen := make(map[string]bool)
	var out []bundle
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !strings.HasSuffix(e.Name(), ".app") {
				continue
			}
			path := filepath.Join(root, e.Name())
			name := strings.TrimSuffix(e.Name(), ".app")
			id := readBundleID(path)
			if id == "" {
				id = name
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, bundle{ID: id, Name: name, Path: path})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func readBundleID(appPath string) string {
	raw, err := os.ReadFile(filepath.Join(appPath, "Contents", "Info.plist"))
	if err != nil {
		return ""
	}
	m := bundleIDPattern.FindSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

package x11

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// desktopEntry is the subset of a freedesktop .desktop file used for app listing
type desktopEntry struct {
	ID        string
	Name      string
	Exec      string
	NoDisplay bool
}

// applicationDirs returns XDG application directories in lookup order
func applicationDirs() []string {
	var dirs []string
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, "applications"))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "applications"))
	}

	data := os.Getenv("XDG_DATA_DIRS")
	if data == "" {
		data = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(data, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

// parseDesktopEntry reads the [Desktop Entry] group
func parseDesktopEntry(id string, r io.Reader) (desktopEntry, bool) {
	entry := desktopEntry{ID: id}
	inGroup := false
	isApp := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inGroup = line == "[Desktop Entry]"
			continue
		}
		if !inGroup {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Type":
			isApp = strings.TrimSpace(value) == "Application"
		case "Name":
			entry.Name = strings.TrimSpace(value)
		case "Exec":
			entry.Exec = strings.TrimSpace(value)
		case "NoDisplay", "Hidden":
			if strings.TrimSpace(value) == "true" {
				entry.NoDisplay = true
			}
		}
	}
	if !isApp || entry.Name == "" {
		return desktopEntry{}, false
	}
	return entry, true
}

// execArgs strips field codes such as %f and %U from an Exec line
func execArgs(execLine string) []string {
	var args []string
	for _, f := range strings.Fields(execLine) {
		if len(f) == 2 && f[0] == '%' {
			continue
		}
		args = append(args, strings.Trim(f, `"`))
	}
	return args
}

// scanDesktopEntries collects entries from dirs; earlier directories shadow later ones
func scanDesktopEntries(dirs []string) []desktopEntry {
	seen := make(map[string]bool)
	var entries []desktopEntry
	for _, dir := range dirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, ".desktop") {
				continue
			}
			id := strings.TrimSuffix(name, ".desktop")
			if seen[id] {
				continue
			}
			seen[id] = true

			fh, err := os.Open(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			entry, ok := parseDesktopEntry(id, fh)
			_ = fh.Close()
			if ok {
				entries = append(entries, entry)
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

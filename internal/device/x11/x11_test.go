package x11

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func TestMapCharToKey(t *testing.T) {
	tests := []struct {
		char  rune
		key   string
		shift bool
	}{
		{'a', "a", false},
		{'Q', "q", true},
		{'!', "exclam", true},
		{'.', "period", false},
		{' ', "space", false},
		{'\n', "Return", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.char), func(t *testing.T) {
			info := mapCharToKey(tt.char)
			assert.Equal(t, tt.key, info.keyStr)
			assert.Equal(t, tt.shift, info.needsShift)
		})
	}
}

func TestParseDesktopEntry(t *testing.T) {
	raw := `# comment
[Desktop Entry]
Type=Application
Name=Text Editor
Exec=gedit %U

[Desktop Action new-window]
Name=New Window
Exec=gedit --new-window
`
	entry, ok := parseDesktopEntry("org.gnome.gedit", strings.NewReader(raw))
	require.True(t, ok)
	assert.Equal(t, "Text Editor", entry.Name)
	assert.Equal(t, "gedit %U", entry.Exec)
	assert.Equal(t, []string{"gedit"}, execArgs(entry.Exec))

	_, ok = parseDesktopEntry("link", strings.NewReader("[Desktop Entry]\nType=Link\nName=Docs\n"))
	assert.False(t, ok)
}

func TestScanDesktopEntriesShadowing(t *testing.T) {
	user := t.TempDir()
	system := t.TempDir()

	write := func(dir, name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write(user, "term.desktop", "[Desktop Entry]\nType=Application\nName=My Term\nExec=xterm\n")
	write(system, "term.desktop", "[Desktop Entry]\nType=Application\nName=Terminal\nExec=xterm\n")
	write(system, "hidden.desktop", "[Desktop Entry]\nType=Application\nName=Hidden\nExec=true\nNoDisplay=true\n")
	write(system, "README", "not an entry")

	entries := scanDesktopEntries([]string{user, system})
	require.Len(t, entries, 2)
	assert.Equal(t, "hidden", entries[0].ID)
	assert.True(t, entries[0].NoDisplay)
	assert.Equal(t, "My Term", entries[1].Name)

	d := &Device{dirs: []string{user, system}}
	apps, err := d.InstalledApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.False(t, apps[0].Launchable)
	assert.True(t, apps[1].Launchable)

	found, err := d.Launch(context.Background(), "hidden")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProviderInfo(t *testing.T) {
	info := NewProvider().Info()
	assert.Equal(t, "x11", info.Name)
	assert.False(t, info.SupportsTree)
}

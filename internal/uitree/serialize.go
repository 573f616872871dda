package uitree

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	xmlHeader      = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`
	hierarchyXMLNS = "http://schemas.android.com/apk/res/android"
)

// Serialize renders the shown nodes of tree as a uiautomator-style hierarchy.
// Nodes that are not shown are elided and their children promoted.
func Serialize(tree *Tree) (string, error) {
	if tree == nil {
		return "", fmt.Errorf("empty tree")
	}

	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<hierarchy xmlns="`)
	b.WriteString(hierarchyXMLNS)
	b.WriteString(`">`)
	if err := writeTree(&b, tree); err != nil {
		return "", err
	}
	b.WriteString(`</hierarchy>`)
	return b.String(), nil
}

func writeTree(b *strings.Builder, t *Tree) error {
	if !t.Node.Show {
		for _, c := range t.Children {
			if err := writeTree(b, c); err != nil {
				return err
			}
		}
		return nil
	}

	n := t.Node
	b.WriteString(`<node`)
	if err := attr(b, "id", t.ID); err != nil {
		return err
	}
	for _, a := range []struct {
		name  string
		value string
	}{
		{"text", Sanitize(n.Text)},
		{"content-desc", Sanitize(n.ContentDesc)},
	} {
		if a.value == "" {
			continue
		}
		if err := attr(b, a.name, a.value); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"clickable", n.Clickable},
		{"long-clickable", n.LongClickable},
		{"focusable", n.Focusable},
		{"focused", n.Focused},
		{"scrollable", n.Scrollable},
		{"password", n.Password},
		{"selected", n.Selected},
		{"editable", n.Editable},
	} {
		if f.set {
			b.WriteString(` ` + f.name + `="true"`)
		}
	}
	r := n.Bounds
	fmt.Fprintf(b, ` bounds="[%d,%d][%d,%d]"`, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)

	if len(t.Children) == 0 {
		b.WriteString(` />`)
		return nil
	}
	b.WriteString(`>`)
	for _, c := range t.Children {
		if err := writeTree(b, c); err != nil {
			return err
		}
	}
	b.WriteString(`</node>`)
	return nil
}

func attr(b *strings.Builder, name, value string) error {
	b.WriteString(` ` + name + `="`)
	if err := xml.EscapeText(b, []byte(value)); err != nil {
		return fmt.Errorf("failed to escape %s: %w", name, err)
	}
	b.WriteString(`"`)
	return nil
}

// Sanitize drops code points that are not legal XML 1.0 characters
func Sanitize(s string) string {
	clean := true
	for i, r := range s {
		if !isXMLChar(r) || (r == utf8.RuneError && isInvalidAt(s, i)) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if r == utf8.RuneError && isInvalidAt(s, i) {
			continue
		}
		if isXMLChar(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isInvalidAt(s string, i int) bool {
	_, size := utf8.DecodeRuneInString(s[i:])
	return size <= 1
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

package uitree

import (
	"image"
	"strconv"
	"sync/atomic"

	device "github.com/inference-gateway/operator/internal/device"
)

// Node is a snapshot of one accessibility element plus its live handle
type Node struct {
	Handle device.Node

	Text        string
	ContentDesc string
	Bounds      image.Rectangle

	Clickable     bool
	LongClickable bool
	Focusable     bool
	Focused       bool
	Scrollable    bool
	Password      bool
	Selected      bool
	Editable      bool

	Visible     bool
	Interactive bool
	// Show marks nodes that appear in the serialized hierarchy
	Show bool
}

// Tree is a node with its pre-order id and kept children
type Tree struct {
	ID       string
	Node     *Node
	Children []*Tree
}

// Snapshot is one tree build. Node ids are only meaningful within the
// snapshot that assigned them; stale ids are not detected.
type Snapshot struct {
	Generation uint64
	Root       *Tree
}

var generation atomic.Uint64

// Take builds a snapshot of root
func Take(root device.Node) *Snapshot {
	return &Snapshot{Generation: generation.Add(1), Root: Build(root)}
}

// Build walks the hierarchy and assigns ids in pre-order starting at "0".
// Children that are nil or not visible are skipped and consume no id; the
// root is kept regardless of visibility.
func Build(root device.Node) *Tree {
	tree, _ := build(root, 0)
	return tree
}

func build(n device.Node, id int) (*Tree, int) {
	if n == nil || (id != 0 && !n.VisibleToUser()) {
		return nil, id
	}

	node := capture(n)
	node.Show = node.Text != "" || node.Interactive || id == 0

	tree := &Tree{ID: strconv.Itoa(id), Node: node}
	next := id + 1
	for i := 0; i < n.ChildCount(); i++ {
		child, after := build(n.Child(i), next)
		if child == nil {
			continue
		}
		tree.Children = append(tree.Children, child)
		next = after
	}
	return tree, next
}

func capture(n device.Node) *Node {
	node := &Node{
		Handle:        n,
		Text:          n.Text(),
		ContentDesc:   n.ContentDescription(),
		Bounds:        n.Bounds(),
		Clickable:     n.Clickable(),
		LongClickable: n.LongClickable(),
		Focusable:     n.Focusable(),
		Focused:       n.Focused(),
		Scrollable:    n.Scrollable(),
		Password:      n.Password(),
		Selected:      n.Selected(),
		Editable:      n.Editable(),
		Visible:       n.VisibleToUser(),
	}
	node.Interactive = node.Clickable || node.LongClickable || node.Focusable || node.Focused ||
		node.Scrollable || node.Password || node.Selected || node.Editable
	return node
}

// NodeMap indexes every node of the tree by id
func NodeMap(tree *Tree) map[string]*Node {
	m := make(map[string]*Node)
	if tree == nil {
		return m
	}
	var walk func(t *Tree)
	walk = func(t *Tree) {
		m[t.ID] = t.Node
		for _, c := range t.Children {
			walk(c)
		}
	}
	walk(tree)
	return m
}

// Walk visits trees in pre-order until fn returns false
func Walk(tree *Tree, fn func(*Tree) bool) bool {
	if tree == nil {
		return true
	}
	if !fn(tree) {
		return false
	}
	for _, c := range tree.Children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

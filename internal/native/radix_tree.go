// Package native - Radix tree implementation for accelerated path matching
//
// Each HTTP method owns one tree. A tree node is either a static segment or
// a generic parameter slot; parameter names live on the leaf entries so that
// routes of the same shape with different parameter names share nodes:
//   - Static paths: /api/users
//   - Parameters:   /api/users/{id}, /api/users/{id:int}
package native

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	errUnbalancedBrace = errors.New("unbalanced brace")
	errPartialParam    = errors.New("parameter must occupy an entire segment")
	errEmptyParamName  = errors.New("empty parameter name")
)

// nodeType represents the type of radix tree node
type nodeType uint8

const (
	static nodeType = iota // Literal path segment: /api/users
	param                  // Parameter segment: /{id}
)

// node represents a single node in the radix tree
type node struct {
	nType    nodeType
	label    string  // Literal text for static nodes
	children []*node // Static children first, then at most one param child

	// Routes terminating at this node. A static leaf holds at most one entry;
	// a dynamic leaf keeps every entry in insertion order.
	entries []*leafEntry
}

// leafEntry is one route terminating at a node.
type leafEntry struct {
	seq        uint64
	handlerID  string
	paramNames []string
}

// Candidate is one route whose shape matches a searched path.
type Candidate struct {
	HandlerID string
	Params    map[string]string
	Static    bool
	seq       uint64
}

// RadixTree is a thread-safe segment tree for route matching
type RadixTree struct {
	root *node
	mu   sync.RWMutex
	size int
}

// NewRadixTree creates a new empty radix tree
func NewRadixTree() *RadixTree {
	return &RadixTree{
		root: &node{nType: static},
	}
}

// Insert adds a route to the radix tree.
//
// Example:
//
//	tree.Insert("/api/users", "12", 1)
//	tree.Insert("/api/users/{id:int}", "13", 2)
func (t *RadixTree) Insert(path, handlerID string, seq uint64) error {
	segments, names, err := parsePattern(path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.root
	for _, seg := range segments {
		segType, label := getSegmentType(seg)
		if segType == param {
			label = ""
		}

		child := t.findChild(current, label, segType)
		if child == nil {
			child = &node{nType: segType, label: label}
			current.children = append(current.children, child)
			t.sortChildren(current)
		}
		current = child
	}

	entry := &leafEntry{seq: seq, handlerID: handlerID, paramNames: names}
	if len(names) == 0 {
		// A static path resolves to its latest registration.
		if len(current.entries) == 0 {
			t.size++
		}
		current.entries = []*leafEntry{entry}
	} else {
		current.entries = append(current.entries, entry)
		t.size++
	}

	log.Debug().
		Str("component", "radix_tree").
		Str("path", path).
		Str("handler_id", handlerID).
		Int("tree_size", t.size).
		Msg("Route inserted into radix tree")

	return nil
}

// Search returns every route whose shape matches path. A static route, if
// any, comes first; dynamic routes follow in insertion order.
func (t *RadixTree) Search(path string) []Candidate {
	t.mu.RLock()
	defer t.mu.RUnlock()

	segments := splitPath(path)
	var found []Candidate
	t.search(t.root, segments, 0, make([]string, 0, len(segments)), &found)

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Static != found[j].Static {
			return found[i].Static
		}
		return found[i].seq < found[j].seq
	})
	return found
}

// search recursively walks the tree collecting matching leaves
func (t *RadixTree) search(n *node, segments []string, index int, values []string, found *[]Candidate) {
	if index >= len(segments) {
		for _, e := range n.entries {
			c := Candidate{
				HandlerID: e.handlerID,
				Params:    make(map[string]string, len(e.paramNames)),
				Static:    len(e.paramNames) == 0,
				seq:       e.seq,
			}
			for i, name := range e.paramNames {
				c.Params[name] = values[i]
			}
			*found = append(*found, c)
		}
		return
	}

	segment := segments[index]
	for _, child := range n.children {
		switch child.nType {
		case static:
			if child.label == segment {
				t.search(child, segments, index+1, values, found)
			}
		case param:
			if segment == "" {
				continue
			}
			t.search(child, segments, index+1, append(values, segment), found)
		}
	}
}

// findChild looks for a child node matching the segment
func (t *RadixTree) findChild(n *node, label string, segType nodeType) *node {
	for _, child := range n.children {
		if child.nType == segType && child.label == label {
			return child
		}
	}
	return nil
}

// sortChildren keeps static children ahead of the parameter child
func (t *RadixTree) sortChildren(n *node) {
	sort.SliceStable(n.children, func(i, j int) bool {
		return n.children[i].nType < n.children[j].nType
	})
}

// Size returns the number of distinct routes in the tree
func (t *RadixTree) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Clear removes all routes from the tree
func (t *RadixTree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.root = &node{nType: static}
	t.size = 0
}

// Helper functions

// splitPath splits a path into segments. The root is one empty segment.
func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// parsePattern splits a route pattern and collects its parameter names.
func parsePattern(path string) ([]string, []string, error) {
	segments := splitPath(path)
	var names []string
	for _, seg := range segments {
		open := strings.IndexByte(seg, '{')
		closing := strings.IndexByte(seg, '}')
		switch {
		case open < 0 && closing < 0:
			continue
		case open != 0 || closing != len(seg)-1:
			if open < 0 || closing < 0 || closing < open {
				return nil, nil, errUnbalancedBrace
			}
			return nil, nil, errPartialParam
		}

		_, name := getSegmentType(seg)
		if name == "" {
			return nil, nil, errEmptyParamName
		}
		names = append(names, name)
	}
	return segments, names, nil
}

// getSegmentType determines the type of a path segment.
// For parameters the second value is the parameter name without any
// inline constraint; for static segments it is the literal.
func getSegmentType(segment string) (nodeType, string) {
	if len(segment) < 2 || segment[0] != '{' || segment[len(segment)-1] != '}' {
		return static, segment
	}

	name := segment[1 : len(segment)-1]
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return param, name
}

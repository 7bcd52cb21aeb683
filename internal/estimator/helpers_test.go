// internal/estimator/helpers_test.go
package estimator

import (
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"
)

// node is an in-memory element for treeHost.
type node struct {
	name     string
	style    Style
	offset   float64
	scroll   float64
	top      float64
	children []*node
}

func (n *node) add(children ...*node) *node {
	n.children = append(n.children, children...)
	return n
}

func block(name string, top, height float64) *node {
	return &node{
		name:   name,
		style:  Style{Display: "block", Visibility: "visible", Opacity: "1", Height: "auto"},
		offset: height,
		scroll: height,
		top:    top,
	}
}

func withDisplay(n *node, display string) *node {
	n.style.Display = display
	return n
}

// treeHost serves node trees and records which elements had their children
// listed, so tests can assert where recursion went.
type treeHost struct {
	mu     sync.Mutex
	listed map[string]int
}

func newTreeHost() *treeHost {
	return &treeHost{listed: make(map[string]int)}
}

var errForeign = errors.New("not a test node")

func (h *treeHost) node(el Element) (*node, error) {
	n, ok := el.(*node)
	if !ok || n == nil {
		return nil, errForeign
	}
	return n, nil
}

func (h *treeHost) Children(el Element) ([]Element, error) {
	n, err := h.node(el)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.listed[n.name]++
	h.mu.Unlock()
	out := make([]Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func (h *treeHost) ComputedStyle(el Element) (Style, error) {
	n, err := h.node(el)
	if err != nil {
		return Style{}, err
	}
	return n.style, nil
}

func (h *treeHost) OffsetHeight(el Element) (float64, error) {
	n, err := h.node(el)
	if err != nil {
		return 0, err
	}
	return n.offset, nil
}

func (h *treeHost) ScrollHeight(el Element) (float64, error) {
	n, err := h.node(el)
	if err != nil {
		return 0, err
	}
	return n.scroll, nil
}

func (h *treeHost) BoundingRect(el Element) (Rect, error) {
	n, err := h.node(el)
	if err != nil {
		return Rect{}, err
	}
	return Rect{Top: n.top, Height: n.offset}, nil
}

func (h *treeHost) wasListed(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listed[name] > 0
}

// mockHost is a testify mock of Host for failure injection.
type mockHost struct {
	mock.Mock
}

func (m *mockHost) Children(el Element) ([]Element, error) {
	args := m.Called(el)
	children, _ := args.Get(0).([]Element)
	return children, args.Error(1)
}

func (m *mockHost) ComputedStyle(el Element) (Style, error) {
	args := m.Called(el)
	return args.Get(0).(Style), args.Error(1)
}

func (m *mockHost) OffsetHeight(el Element) (float64, error) {
	args := m.Called(el)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockHost) ScrollHeight(el Element) (float64, error) {
	args := m.Called(el)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockHost) BoundingRect(el Element) (Rect, error) {
	args := m.Called(el)
	return args.Get(0).(Rect), args.Error(1)
}

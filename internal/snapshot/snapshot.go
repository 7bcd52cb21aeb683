// internal/snapshot/snapshot.go
package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/contentheight/api/schemas"
)

// New wraps a captured tree in a Snapshot with a fresh ID and timestamp, and
// renumbers the node refs.
func New(url, selector string, depth int, viewport schemas.Viewport, root *schemas.SnapshotNode) *schemas.Snapshot {
	Renumber(root)
	return &schemas.Snapshot{
		ID:         uuid.NewString(),
		URL:        url,
		Selector:   selector,
		CapturedAt: time.Now().UTC(),
		Viewport:   viewport,
		Depth:      depth,
		Root:       root,
	}
}

// Walk visits root and its descendants depth-first, pre-order. fn receives the
// node depth (root is 0); returning false skips that node's children.
func Walk(root *schemas.SnapshotNode, fn func(n *schemas.SnapshotNode, depth int) bool) {
	var visit func(n *schemas.SnapshotNode, depth int)
	visit = func(n *schemas.SnapshotNode, depth int) {
		if n == nil || !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
}

// Renumber assigns refs 0..n-1 in depth-first order.
func Renumber(root *schemas.SnapshotNode) {
	next := 0
	Walk(root, func(n *schemas.SnapshotNode, _ int) bool {
		n.Ref = next
		next++
		return true
	})
}

// Find returns the first node, depth-first, that matches query:
//
//	""         the root
//	"#main"    element id
//	"ref:12"   snapshot ref
//	"section"  tag name (case-insensitive)
func (h *Host) Find(query string) (*schemas.SnapshotNode, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return h.snap.Root, nil
	}

	var match func(n *schemas.SnapshotNode) bool
	switch {
	case strings.HasPrefix(query, "#"):
		id := query[1:]
		match = func(n *schemas.SnapshotNode) bool { return n.ID == id }
	case strings.HasPrefix(query, "ref:"):
		ref, err := strconv.Atoi(query[len("ref:"):])
		if err != nil {
			return nil, fmt.Errorf("snapshot: invalid ref query %q: %w", query, err)
		}
		match = func(n *schemas.SnapshotNode) bool { return n.Ref == ref }
	default:
		match = func(n *schemas.SnapshotNode) bool { return strings.EqualFold(n.Tag, query) }
	}

	var found *schemas.SnapshotNode
	Walk(h.snap.Root, func(n *schemas.SnapshotNode, _ int) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return found, nil
}

// -- Encoding --

// Encode writes snap as indented JSON.
func Encode(w io.Writer, snap *schemas.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot and checks it has a root.
func Decode(r io.Reader) (*schemas.Snapshot, error) {
	var snap schemas.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Root == nil {
		return nil, ErrEmpty
	}
	return &snap, nil
}

// Load reads a snapshot file.
func Load(path string) (*schemas.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes a snapshot file, creating parent directories as needed.
func Save(path string, snap *schemas.Snapshot) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

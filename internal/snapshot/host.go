// internal/snapshot/host.go
package snapshot

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/contentheight/api/schemas"
	"github.com/xkilldash9x/contentheight/internal/estimator"
)

var (
	// ErrForeignElement is returned when a handle did not come from this snapshot.
	ErrForeignElement = errors.New("snapshot: element handle does not belong to this snapshot")
	// ErrNotFound is returned by Find when no node matches.
	ErrNotFound = errors.New("snapshot: no matching node")
	// ErrEmpty is returned when a snapshot has no root node.
	ErrEmpty = errors.New("snapshot: snapshot has no root")
)

// Host serves a recorded Snapshot through the estimator's capability
// interface. Handles are *schemas.SnapshotNode values from the same snapshot.
// The snapshot is only read, so a Host is safe for concurrent use.
type Host struct {
	snap  *schemas.Snapshot
	nodes map[*schemas.SnapshotNode]struct{}
}

var _ estimator.Host = (*Host)(nil)

// NewHost indexes snap for lookups.
func NewHost(snap *schemas.Snapshot) (*Host, error) {
	if snap == nil || snap.Root == nil {
		return nil, ErrEmpty
	}
	h := &Host{
		snap:  snap,
		nodes: make(map[*schemas.SnapshotNode]struct{}),
	}
	Walk(snap.Root, func(n *schemas.SnapshotNode, _ int) bool {
		h.nodes[n] = struct{}{}
		return true
	})
	return h, nil
}

// Snapshot returns the underlying snapshot.
func (h *Host) Snapshot() *schemas.Snapshot { return h.snap }

// Root returns the snapshot's root handle.
func (h *Host) Root() estimator.Element { return h.snap.Root }

func (h *Host) node(el estimator.Element) (*schemas.SnapshotNode, error) {
	n, ok := el.(*schemas.SnapshotNode)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignElement, el)
	}
	if _, ok := h.nodes[n]; !ok {
		return nil, fmt.Errorf("%w: ref %d", ErrForeignElement, n.Ref)
	}
	return n, nil
}

// CapturedLevels returns how many levels below el can be read before the
// estimator meets a truncated node. complete is true when nothing under el
// was truncated, in which case levels is meaningless.
func (h *Host) CapturedLevels(el estimator.Element) (levels int, complete bool, err error) {
	n, err := h.node(el)
	if err != nil {
		return 0, false, err
	}
	levels, complete = -1, true
	Walk(n, func(c *schemas.SnapshotNode, depth int) bool {
		if complete || depth < levels {
			if c.Truncated {
				levels, complete = depth, false
				return false
			}
			return true
		}
		return false
	})
	if complete {
		levels = 0
	}
	return levels, complete, nil
}

// Children returns the captured children. Truncated nodes report none, which
// sends the estimator to its native-metric base case.
func (h *Host) Children(el estimator.Element) ([]estimator.Element, error) {
	n, err := h.node(el)
	if err != nil {
		return nil, err
	}
	out := make([]estimator.Element, len(n.Children))
	for i, c := range n.Children {
		out[i] = c
	}
	return out, nil
}

func (h *Host) ComputedStyle(el estimator.Element) (estimator.Style, error) {
	n, err := h.node(el)
	if err != nil {
		return estimator.Style{}, err
	}
	s := n.Style
	return estimator.Style{
		Display:       s.Display,
		Visibility:    s.Visibility,
		Opacity:       s.Opacity,
		MarginTop:     s.MarginTop,
		MarginBottom:  s.MarginBottom,
		PaddingTop:    s.PaddingTop,
		PaddingBottom: s.PaddingBottom,
		Height:        s.Height,
	}, nil
}

func (h *Host) OffsetHeight(el estimator.Element) (float64, error) {
	n, err := h.node(el)
	if err != nil {
		return 0, err
	}
	return n.OffsetHeight, nil
}

func (h *Host) ScrollHeight(el estimator.Element) (float64, error) {
	n, err := h.node(el)
	if err != nil {
		return 0, err
	}
	return n.ScrollHeight, nil
}

func (h *Host) BoundingRect(el estimator.Element) (estimator.Rect, error) {
	n, err := h.node(el)
	if err != nil {
		return estimator.Rect{}, err
	}
	return estimator.Rect{
		Top:    n.Rect.Top,
		Left:   n.Rect.Left,
		Width:  n.Rect.Width,
		Height: n.Rect.Height,
	}, nil
}

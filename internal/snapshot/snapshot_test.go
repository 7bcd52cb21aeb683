// internal/snapshot/snapshot_test.go
package snapshot

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/contentheight/api/schemas"
	"github.com/xkilldash9x/contentheight/internal/estimator"
)

// cardSnapshot is a feed with a grid of two cards and a truncated footer.
func cardSnapshot() *schemas.Snapshot {
	visible := schemas.NodeStyle{Display: "block", Visibility: "visible", Opacity: "1", Height: "auto"}
	card := func(id string, top, height float64) *schemas.SnapshotNode {
		return &schemas.SnapshotNode{
			Tag: "article", ID: id, Style: visible,
			OffsetHeight: height, ScrollHeight: height,
			Rect: schemas.NodeRect{Top: top, Height: height},
		}
	}
	gridStyle := visible
	gridStyle.Display = "grid"
	grid := &schemas.SnapshotNode{
		Tag: "section", ID: "cards", Style: gridStyle,
		OffsetHeight: 100, ScrollHeight: 260,
		Rect:     schemas.NodeRect{Top: 10, Height: 100},
		Children: []*schemas.SnapshotNode{card("first", 10, 120), card("second", 140, 130)},
	}
	footer := &schemas.SnapshotNode{
		Tag: "FOOTER", Style: visible,
		OffsetHeight: 40, ScrollHeight: 90,
		Rect:      schemas.NodeRect{Top: 110, Height: 40},
		Truncated: true,
	}
	root := &schemas.SnapshotNode{
		Tag: "main", ID: "feed", Classes: []string{"feed"}, Style: visible,
		OffsetHeight: 150, ScrollHeight: 260,
		Rect:     schemas.NodeRect{Top: 0, Height: 150},
		Children: []*schemas.SnapshotNode{grid, footer},
	}
	return New("https://example.test/feed", "#feed", 2, schemas.Viewport{Width: 1280, Height: 800}, root)
}

func TestNew(t *testing.T) {
	snap := cardSnapshot()
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.CapturedAt.IsZero())
	assert.Equal(t, "UTC", snap.CapturedAt.Location().String())

	var refs []int
	var depths []int
	Walk(snap.Root, func(n *schemas.SnapshotNode, depth int) bool {
		refs = append(refs, n.Ref)
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, refs)
	assert.Equal(t, []int{0, 1, 2, 2, 1}, depths)

	assert.NotEqual(t, snap.ID, cardSnapshot().ID, "every snapshot gets its own ID")
}

func TestWalk_SkipsChildren(t *testing.T) {
	snap := cardSnapshot()
	var tags []string
	Walk(snap.Root, func(n *schemas.SnapshotNode, _ int) bool {
		tags = append(tags, n.Tag)
		return n.Tag != "section"
	})
	assert.Equal(t, []string{"main", "section", "FOOTER"}, tags)
}

func TestHost_Find(t *testing.T) {
	host, err := NewHost(cardSnapshot())
	require.NoError(t, err)

	tests := []struct {
		query string
		ref   int
	}{
		{"", 0},
		{"  ", 0},
		{"#cards", 1},
		{"#second", 3},
		{"ref:4", 4},
		{"article", 2},
		{"footer", 4},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			n, err := host.Find(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.ref, n.Ref)
		})
	}

	_, err = host.Find("#absent")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = host.Find("ref:x")
	assert.ErrorContains(t, err, "invalid ref query")
}

func TestHost_ServesSnapshotValues(t *testing.T) {
	snap := cardSnapshot()
	host, err := NewHost(snap)
	require.NoError(t, err)

	children, err := host.Children(host.Root())
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Same(t, snap.Root.Children[0], children[0])

	style, err := host.ComputedStyle(children[0])
	require.NoError(t, err)
	assert.Equal(t, "grid", style.Display)

	offset, err := host.OffsetHeight(children[0])
	require.NoError(t, err)
	assert.Equal(t, 100.0, offset)

	scroll, err := host.ScrollHeight(children[0])
	require.NoError(t, err)
	assert.Equal(t, 260.0, scroll)

	rect, err := host.BoundingRect(children[1])
	require.NoError(t, err)
	assert.Equal(t, estimator.Rect{Top: 110, Height: 40}, rect)

	truncated, err := host.Children(children[1])
	require.NoError(t, err)
	assert.Empty(t, truncated, "truncated nodes report no children")
}

func TestHost_RejectsForeignHandles(t *testing.T) {
	host, err := NewHost(cardSnapshot())
	require.NoError(t, err)
	other := cardSnapshot()

	_, err = host.Children(other.Root)
	assert.ErrorIs(t, err, ErrForeignElement)
	_, err = host.OffsetHeight("main")
	assert.ErrorIs(t, err, ErrForeignElement)
	_, err = host.BoundingRect((*schemas.SnapshotNode)(nil))
	assert.ErrorIs(t, err, ErrForeignElement)

	_, err = estimator.Standard(host, other.Root)
	assert.ErrorIs(t, err, ErrForeignElement)
}

func TestNewHost_Empty(t *testing.T) {
	_, err := NewHost(nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = NewHost(&schemas.Snapshot{ID: "x"})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestEstimateAgainstSnapshot(t *testing.T) {
	host, err := NewHost(cardSnapshot())
	require.NoError(t, err)

	// The grid is deep-measured to 260px and starts 10px down, so it spans
	// 10..270. The footer is trusted at 40px (110..150).
	got, err := estimator.Estimate(host, host.Root(), estimator.Options{IncludePadding: estimator.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, 260.0, got)

	got, err = estimator.Fast(host, host.Root())
	require.NoError(t, err)
	assert.Equal(t, 140.0, got, "one level deep the grid box is taken at face value")

	footer, err := host.Find("footer")
	require.NoError(t, err)
	got, err = estimator.Standard(host, footer)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got, "truncated subtrees fall back to the native metric")
}

func TestHost_CapturedLevels(t *testing.T) {
	host, err := NewHost(cardSnapshot())
	require.NoError(t, err)

	tests := []struct {
		query    string
		levels   int
		complete bool
	}{
		{"", 1, false},
		{"#cards", 0, true},
		{"footer", 0, false},
		{"#first", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			n, err := host.Find(tt.query)
			require.NoError(t, err)
			levels, complete, err := host.CapturedLevels(n)
			require.NoError(t, err)
			assert.Equal(t, tt.levels, levels)
			assert.Equal(t, tt.complete, complete)
		})
	}

	_, _, err = host.CapturedLevels(cardSnapshot().Root)
	assert.ErrorIs(t, err, ErrForeignElement)
}

func TestEncodeDecode(t *testing.T) {
	snap := cardSnapshot()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap))
	assert.Contains(t, buf.String(), `"offsetHeight": 150`)
	assert.Contains(t, buf.String(), `"truncated": true`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, decoded); diff != "" {
		t.Errorf("decoded snapshot mismatch (-want +got):\n%s", diff)
	}

	_, err = Decode(strings.NewReader(`{"id":"empty"}`))
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = Decode(strings.NewReader(`{not json`))
	assert.ErrorContains(t, err, "failed to decode snapshot")
}

func TestSaveLoad(t *testing.T) {
	snap := cardSnapshot()
	path := filepath.Join(t.TempDir(), "nested", "dir", snap.ID+".json")

	require.NoError(t, Save(path, snap))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, loaded.ID)
	assert.True(t, snap.CapturedAt.Equal(loaded.CapturedAt))

	host, err := NewHost(loaded)
	require.NoError(t, err)
	n, err := host.Find("#second")
	require.NoError(t, err)
	assert.Equal(t, 130.0, n.OffsetHeight)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to open snapshot")
}

// File: api/schemas/snapshot.go
package schemas

import "time"

// Snapshot is a recorded render subtree: the computed style and box metrics of
// every captured element, frozen at capture time.
type Snapshot struct {
	ID         string    `json:"id"`
	URL        string    `json:"url,omitempty"`
	Selector   string    `json:"selector,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
	Viewport   Viewport  `json:"viewport"`

	// Depth is the number of child levels captured below Root.
	Depth int           `json:"depth"`
	Root  *SnapshotNode `json:"root"`
}

// Viewport records the browser window size the snapshot was taken at.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SnapshotNode is one element of a Snapshot.
type SnapshotNode struct {
	// Ref is unique within a snapshot, assigned in depth-first order from 0.
	Ref     int      `json:"ref"`
	Tag     string   `json:"tag,omitempty"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`

	Style        NodeStyle `json:"style"`
	OffsetHeight float64   `json:"offsetHeight"`
	ScrollHeight float64   `json:"scrollHeight"`
	Rect         NodeRect  `json:"rect"`

	// Truncated marks nodes whose children were not captured because the
	// capture depth was reached.
	Truncated bool            `json:"truncated,omitempty"`
	Children  []*SnapshotNode `json:"children,omitempty"`
}

// NodeStyle holds the computed style values relevant to height estimation.
type NodeStyle struct {
	Display       string `json:"display,omitempty"`
	Visibility    string `json:"visibility,omitempty"`
	Opacity       string `json:"opacity,omitempty"`
	MarginTop     string `json:"marginTop,omitempty"`
	MarginBottom  string `json:"marginBottom,omitempty"`
	PaddingTop    string `json:"paddingTop,omitempty"`
	PaddingBottom string `json:"paddingBottom,omitempty"`
	Height        string `json:"height,omitempty"`
}

// NodeRect is the element's bounding client rectangle.
type NodeRect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HeightEstimate is the result record emitted for one measured element.
type HeightEstimate struct {
	URL          string  `json:"url,omitempty"`
	Selector     string  `json:"selector"`
	Preset       string  `json:"preset,omitempty"`
	Height       float64 `json:"height"`
	OffsetHeight float64 `json:"offsetHeight"`
	ScrollHeight float64 `json:"scrollHeight"`
	SnapshotID   string  `json:"snapshotId,omitempty"`
	Error        string  `json:"error,omitempty"`

	// Warning flags an estimate that could not look as deep as requested,
	// e.g. a snapshot captured with fewer levels than the max depth.
	Warning string `json:"warning,omitempty"`
}

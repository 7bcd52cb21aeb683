// internal/estimator/host.go
package estimator

// Element is an opaque reference to a node in the rendered tree. Only the Host
// that produced it knows how to interpret it.
type Element any

// Style carries the computed style properties the estimator reads. Values are
// kept as the host reports them ("12px", "auto", "50%", "0").
type Style struct {
	Display       string
	Visibility    string
	Opacity       string
	MarginTop     string
	MarginBottom  string
	PaddingTop    string
	PaddingBottom string
	Height        string
}

// Rect is a bounding rectangle in a coordinate space shared by an element and
// all of its ancestors.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Host is the capability interface to the rendering environment. Every method
// is a read; implementations must not mutate the tree. Errors (for example a
// detached handle) are handed back to the caller untouched.
type Host interface {
	Children(el Element) ([]Element, error)
	ComputedStyle(el Element) (Style, error)
	OffsetHeight(el Element) (float64, error)
	ScrollHeight(el Element) (float64, error)
	BoundingRect(el Element) (Rect, error)
}

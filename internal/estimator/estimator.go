// internal/estimator/estimator.go
package estimator

import (
	"math"

	"go.uber.org/zap"
)

// Extent is a child's vertical span relative to its container's top edge.
type Extent struct {
	Top    float64
	Bottom float64
}

// Estimator estimates content heights against a single Host. It holds no
// per-call state and is safe for concurrent use as long as the Host is.
type Estimator struct {
	host   Host
	logger *zap.Logger
}

// New creates an Estimator. A nil logger disables decision tracing.
func New(host Host, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		host:   host,
		logger: logger.Named("estimator"),
	}
}

// Estimate merges opts over the defaults and measures root.
func (e *Estimator) Estimate(root Element, opts Options) (float64, error) {
	return e.EstimateWithConfig(root, Resolve(opts))
}

// EstimateWithConfig measures root with an already complete configuration.
func (e *Estimator) EstimateWithConfig(root Element, cfg Config) (float64, error) {
	m := &measurer{
		host:   e.host,
		cfg:    cfg.clone(),
		logger: e.logger,
	}
	return m.measure(root, 0)
}

// Fast estimates with the "fast" preset: one level, scroll height as the native metric.
func (e *Estimator) Fast(root Element) (float64, error) {
	return e.Estimate(root, MustPreset(PresetFast))
}

// Standard estimates with the defaults. Identical to Estimate(root, Options{}).
func (e *Estimator) Standard(root Element) (float64, error) {
	return e.Estimate(root, Options{})
}

// Precise estimates with the "precise" preset.
func (e *Estimator) Precise(root Element) (float64, error) {
	return e.Estimate(root, MustPreset(PresetPrecise))
}

// GridOptimized estimates with the "gridOptimized" preset.
func (e *Estimator) GridOptimized(root Element) (float64, error) {
	return e.Estimate(root, MustPreset(PresetGridOptimized))
}

// Estimate is the package-level entry point, without tracing.
func Estimate(host Host, root Element, opts Options) (float64, error) {
	return New(host, nil).Estimate(root, opts)
}

// EstimateWithConfig is the package-level form of Estimator.EstimateWithConfig.
func EstimateWithConfig(host Host, root Element, cfg Config) (float64, error) {
	return New(host, nil).EstimateWithConfig(root, cfg)
}

func Fast(host Host, root Element) (float64, error)     { return New(host, nil).Fast(root) }
func Standard(host Host, root Element) (float64, error) { return New(host, nil).Standard(root) }
func Precise(host Host, root Element) (float64, error)  { return New(host, nil).Precise(root) }
func GridOptimized(host Host, root Element) (float64, error) {
	return New(host, nil).GridOptimized(root)
}

// -- Recursion Controller --

// measurer carries one top-level call. The recursion state is only the
// (element, depth) pair on the call stack.
type measurer struct {
	host   Host
	cfg    Config
	logger *zap.Logger
}

// native returns the host's own height for el.
func (m *measurer) native(el Element) (float64, error) {
	if m.cfg.UseScrollHeight {
		return m.host.ScrollHeight(el)
	}
	return m.host.OffsetHeight(el)
}

func (m *measurer) measure(el Element, depth int) (float64, error) {
	children, err := m.host.Children(el)
	if err != nil {
		return 0, err
	}

	if len(children) == 0 || depth >= m.cfg.MaxDepth {
		m.logger.Debug("Using native metric.",
			zap.Int("depth", depth),
			zap.Int("children", len(children)),
			zap.Bool("scroll_height", m.cfg.UseScrollHeight))
		return m.native(el)
	}

	var (
		containerTop float64
		haveTop      bool
		visible      int
	)
	minTop, maxBottom := math.Inf(1), math.Inf(-1)

	for i, child := range children {
		style, err := m.host.ComputedStyle(child)
		if err != nil {
			return 0, err
		}
		offsetHeight, err := m.host.OffsetHeight(child)
		if err != nil {
			return 0, err
		}
		if IsHidden(style, offsetHeight) {
			m.logger.Debug("Skipping hidden child.", zap.Int("depth", depth), zap.Int("index", i))
			continue
		}

		if !haveTop {
			rect, err := m.host.BoundingRect(el)
			if err != nil {
				return 0, err
			}
			containerTop, haveTop = rect.Top, true
		}

		ext, err := m.extent(child, style, offsetHeight, containerTop, depth)
		if err != nil {
			return 0, err
		}
		minTop = math.Min(minTop, ext.Top)
		maxBottom = math.Max(maxBottom, ext.Bottom)
		visible++
	}

	if visible == 0 {
		m.logger.Debug("All children hidden; using native metric.", zap.Int("depth", depth))
		return m.native(el)
	}

	// The container's own top edge bounds the extent from above.
	height := maxBottom - math.Max(0, minTop)

	if m.cfg.IncludePadding {
		style, err := m.host.ComputedStyle(el)
		if err != nil {
			return 0, err
		}
		height += ParseLength(style.PaddingTop) + ParseLength(style.PaddingBottom)
	}

	return height, nil
}

// extent computes a visible child's span relative to the container top.
func (m *measurer) extent(child Element, style Style, offsetHeight, containerTop float64, depth int) (Extent, error) {
	deep, err := NeedsDeepMeasure(m.host, child, style, offsetHeight, depth, m.cfg)
	if err != nil {
		return Extent{}, err
	}

	height := offsetHeight
	if deep {
		m.logger.Debug("Measuring child subtree.", zap.Int("depth", depth+1), zap.String("display", style.Display))
		height, err = m.measure(child, depth+1)
		if err != nil {
			return Extent{}, err
		}
	}

	rect, err := m.host.BoundingRect(child)
	if err != nil {
		return Extent{}, err
	}
	relTop := rect.Top - containerTop

	var marginTop, marginBottom float64
	if m.cfg.IncludeMargins {
		marginTop = ParseLength(style.MarginTop)
		marginBottom = ParseLength(style.MarginBottom)
	}

	return Extent{
		Top:    relTop - marginTop,
		Bottom: relTop + height + marginBottom,
	}, nil
}

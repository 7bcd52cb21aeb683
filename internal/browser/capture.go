// internal/browser/capture.go
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/contentheight/api/schemas"
	"github.com/xkilldash9x/contentheight/internal/estimator"
	"github.com/xkilldash9x/contentheight/internal/snapshot"
)

// ErrElementNotFound is returned when the capture selector matches nothing.
var ErrElementNotFound = errors.New("browser: element not found")

// captureScript serializes the subtree under a selector (document.body when
// empty) down to a fixed number of child levels. Everything is read in one
// evaluation so the snapshot reflects a single rendering state.
const captureScript = `(function(sel, depth) {
	const root = sel ? document.querySelector(sel) : document.body;
	if (!root) return null;
	const num = (v) => (typeof v === 'number' && isFinite(v)) ? v : 0;
	const pick = (el, level) => {
		const cs = window.getComputedStyle(el);
		const r = el.getBoundingClientRect();
		const node = {
			tag: el.tagName ? el.tagName.toLowerCase() : '',
			style: {
				display: cs.display,
				visibility: cs.visibility,
				opacity: cs.opacity,
				marginTop: cs.marginTop,
				marginBottom: cs.marginBottom,
				paddingTop: cs.paddingTop,
				paddingBottom: cs.paddingBottom,
				height: cs.height
			},
			offsetHeight: num(el.offsetHeight),
			scrollHeight: num(el.scrollHeight),
			rect: { top: r.top, left: r.left, width: r.width, height: r.height }
		};
		if (el.id) node.id = el.id;
		if (el.classList && el.classList.length) node.classes = Array.from(el.classList);
		if (el.children.length) {
			if (level >= depth) {
				node.truncated = true;
			} else {
				node.children = Array.from(el.children).map((c) => pick(c, level + 1));
			}
		}
		return node;
	};
	return pick(root, 0);
})(%s, %d)`

// Capture records the subtree under selector, depth child levels deep.
func (s *Session) Capture(ctx context.Context, selector string, depth int) (*schemas.Snapshot, error) {
	if depth < 0 {
		depth = 0
	}

	sel, err := json.MarshalToString(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to encode selector: %w", err)
	}
	script := fmt.Sprintf(captureScript, sel, depth)

	var raw []byte
	err = s.runActions(ctx, s.cfg.CaptureTimeout,
		chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithSilent(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture '%s': %w", selector, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: '%s'", ErrElementNotFound, selector)
	}

	var root schemas.SnapshotNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to decode capture of '%s': %w", selector, err)
	}

	url, err := s.Location(ctx)
	if err != nil {
		s.logger.Warn("Could not read page location for snapshot.", zap.Error(err))
	}

	viewport := schemas.Viewport{Width: s.cfg.Viewport.Width, Height: s.cfg.Viewport.Height}
	snap := snapshot.New(url, selector, depth, viewport, &root)
	s.logger.Debug("Captured snapshot.",
		zap.String("snapshot_id", snap.ID),
		zap.String("selector", selector),
		zap.Int("depth", depth))
	return snap, nil
}

// Estimate captures the subtree under selector deep enough for cfg and runs
// the estimator against the capture.
func (s *Session) Estimate(ctx context.Context, selector string, cfg estimator.Config) (schemas.HeightEstimate, *schemas.Snapshot, error) {
	result := schemas.HeightEstimate{Selector: selector}

	snap, err := s.Capture(ctx, selector, cfg.MaxDepth)
	if err != nil {
		return result, nil, err
	}
	host, err := snapshot.NewHost(snap)
	if err != nil {
		return result, snap, err
	}

	height, err := estimator.New(host, s.logger).EstimateWithConfig(host.Root(), cfg)
	if err != nil {
		return result, snap, fmt.Errorf("failed to estimate '%s': %w", selector, err)
	}

	result.Height = height
	result.OffsetHeight = snap.Root.OffsetHeight
	result.ScrollHeight = snap.Root.ScrollHeight
	result.SnapshotID = snap.ID
	return result, snap, nil
}

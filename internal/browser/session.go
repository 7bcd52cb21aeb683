// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/contentheight/internal/config"
)

// ErrSessionClosed is returned by operations on a closed Session.
var ErrSessionClosed = errors.New("browser: session is closed")

// Session is a single headless Chrome tab used to load pages and capture
// render snapshots. A Session is not safe for concurrent use; CDP commands on
// one tab are serialized anyway.
type Session struct {
	cfg     config.BrowserConfig
	logger  *zap.Logger
	limiter *rate.Limiter

	allocCancel context.CancelFunc
	ctx         context.Context // tab context, carries the chromedp target
	cancel      context.CancelFunc
}

// AllocatorOptions translates the browser configuration into exec allocator
// options on top of chromedp's defaults.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		name, value := splitFlag(arg)
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// newNavigationLimiter allows perSecond page loads with a burst of one. A
// non-positive rate is unlimited.
func newNavigationLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// splitFlag turns "--name=value" or "name" into a chromedp flag pair.
func splitFlag(arg string) (string, interface{}) {
	for len(arg) > 0 && arg[0] == '-' {
		arg = arg[1:]
	}
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return arg[:i], arg[i+1:]
		}
	}
	return arg, true
}

// NewSession launches Chrome and opens a tab. The browser lives until Close
// is called or parent is canceled.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, AllocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Errorf),
	)

	// Running with no actions starts the browser and attaches the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(cfg.Viewport.Width), int64(cfg.Viewport.Height))); err != nil {
			tabCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	logger.Debug("Browser session started.", zap.Bool("headless", cfg.Headless))
	return &Session{
		cfg:         cfg,
		logger:      logger,
		limiter:     newNavigationLimiter(cfg.NavigationRate),
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      tabCancel,
	}, nil
}

// runActions executes actions on the tab, bounded by both the session and ctx,
// plus timeout when it is positive.
func (s *Session) runActions(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.ctx == nil || s.ctx.Err() != nil {
		return ErrSessionClosed
	}

	opCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runCtx, cancel := CombineContext(s.ctx, opCtx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && opCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("browser operation timed out after %v: %w", timeout, opCtx.Err())
	}
	return err
}

// Navigate loads url and waits for the body to be ready plus the configured
// settle time. Loads are paced by the session's navigation rate.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.ctx == nil || s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("navigation to %s not started: %w", url, err)
		}
	}

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if s.cfg.PostLoadWait > 0 {
		actions = append(actions, chromedp.Sleep(s.cfg.PostLoadWait))
	}
	if err := s.runActions(ctx, s.cfg.NavigationTimeout, actions...); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.logger.Debug("Page loaded.", zap.String("url", url))
	return nil
}

// Location returns the URL of the current document.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.runActions(ctx, s.cfg.CaptureTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.allocCancel()
	s.cancel = nil
	s.logger.Debug("Browser session closed.")
	return nil
}

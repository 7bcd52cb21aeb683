// File: cmd/provider.go
package cmd

import (
	"context"
	"errors"
	"io"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/contentheight/api/schemas"
	"github.com/xkilldash9x/contentheight/internal/browser"
	"github.com/xkilldash9x/contentheight/internal/config"
	"github.com/xkilldash9x/contentheight/internal/estimator"
)

// json sorts map keys so command output is stable.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// pageSession is the part of browser.Session the commands use.
type pageSession interface {
	Navigate(ctx context.Context, url string) error
	Capture(ctx context.Context, selector string, depth int) (*schemas.Snapshot, error)
	Estimate(ctx context.Context, selector string, cfg estimator.Config) (schemas.HeightEstimate, *schemas.Snapshot, error)
	Close() error
}

// sessionProvider opens browser sessions. Tests inject a fake so commands can
// run without Chrome.
type sessionProvider interface {
	Open(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (pageSession, error)
}

// defaultSessionProvider launches a real headless Chrome.
type defaultSessionProvider struct{}

func (defaultSessionProvider) Open(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (pageSession, error) {
	s, err := browser.NewSession(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// writeJSON prints v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// isNotFound reports whether err means the page had no element for a selector.
func isNotFound(err error) bool {
	return errors.Is(err, browser.ErrElementNotFound)
}

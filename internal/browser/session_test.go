// internal/browser/session_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/contentheight/internal/config"
	"github.com/xkilldash9x/contentheight/internal/estimator"
	"github.com/xkilldash9x/contentheight/internal/snapshot"
)

// =============================================================================
// Unit Tests
// =============================================================================

func TestSplitFlag(t *testing.T) {
	tests := []struct {
		arg   string
		name  string
		value interface{}
	}{
		{"--no-sandbox", "no-sandbox", true},
		{"disable-extensions", "disable-extensions", true},
		{"--lang=en-US", "lang", "en-US"},
		{"-proxy-server=http://127.0.0.1:8080", "proxy-server", "http://127.0.0.1:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, value := splitFlag(tt.arg)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestAllocatorOptions_AddsConfiguredFlags(t *testing.T) {
	base := config.NewDefaultConfig().Browser()
	plain := AllocatorOptions(base)

	base.ExecPath = "/opt/chrome/chrome"
	base.UserAgent = "contentheight-test"
	base.Args = []string{"--no-sandbox", "--lang=en-US"}
	extended := AllocatorOptions(base)

	// Exec path, user agent and two extra flags.
	assert.Len(t, extended, len(plain)+4)
}

func TestNewNavigationLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, newNavigationLimiter(0).Limit())
	assert.Equal(t, rate.Inf, newNavigationLimiter(-1).Limit())

	limiter := newNavigationLimiter(20)
	assert.Equal(t, rate.Limit(20), limiter.Limit())
	assert.Equal(t, 1, limiter.Burst())

	ctx := context.Background()
	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "second load waits for a token")
}

func TestCombineContext(t *testing.T) {
	t.Run("secondary cancellation propagates", func(t *testing.T) {
		type key struct{}
		primary := context.WithValue(context.Background(), key{}, "target")
		secondary, cancelSecondary := context.WithCancel(context.Background())

		combined, cancel := CombineContext(primary, secondary)
		defer cancel()

		assert.Equal(t, "target", combined.Value(key{}), "values come from the primary context")
		cancelSecondary()

		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled with the secondary")
		}
	})

	t.Run("primary cancellation propagates", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestSession_ClosedSessionRejectsWork(t *testing.T) {
	s := &Session{}
	err := s.Navigate(context.Background(), "about:blank")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, s.Close(), "closing an unstarted session is a no-op")
}

// =============================================================================
// Integration Tests (require a local Chrome)
// =============================================================================

// findChrome skips the test when no Chrome/Chromium binary is available.
func findChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found in PATH")
}

const gridPage = `<!doctype html>
<html><head><style>
	body { margin: 0; }
	#wrap { height: 50px; }
	#grid { display: grid; grid-template-rows: 40px; height: 40px; }
	.tall { height: 300px; margin: 0; }
	.hidden { display: none; }
</style></head>
<body>
	<div id="wrap">
		<div id="grid">
			<div class="tall">overflowing grid item</div>
		</div>
		<div class="hidden">never measured</div>
	</div>
</body></html>`

func setupTestSession(t *testing.T) (*Session, *httptest.Server) {
	t.Helper()
	findChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, gridPage)
	}))

	cfg := config.NewDefaultConfig().Browser()
	cfg.Args = []string{"--no-sandbox"}
	cfg.PostLoadWait = 0

	session, err := NewSession(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
		server.Close()
	})

	require.NoError(t, session.Navigate(context.Background(), server.URL))
	return session, server
}

func TestSession_CaptureAndEstimate(t *testing.T) {
	session, server := setupTestSession(t)
	ctx := context.Background()

	t.Run("capture records the subtree", func(t *testing.T) {
		snap, err := session.Capture(ctx, "#wrap", 2)
		require.NoError(t, err)

		assert.NotEmpty(t, snap.ID)
		assert.Equal(t, server.URL+"/", snap.URL)
		require.Len(t, snap.Root.Children, 2)
		assert.Equal(t, "grid", snap.Root.Children[0].Style.Display)
		assert.Equal(t, "none", snap.Root.Children[1].Style.Display)
		assert.Equal(t, 50.0, snap.Root.OffsetHeight)

		host, err := snapshot.NewHost(snap)
		require.NoError(t, err)
		grid, err := host.Find("#grid")
		require.NoError(t, err)
		assert.Equal(t, 40.0, grid.OffsetHeight)
	})

	t.Run("estimate looks through the grid box", func(t *testing.T) {
		result, snap, err := session.Estimate(ctx, "#wrap", estimator.DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, snap)

		// The grid is deep-measured and its 300px item dominates.
		assert.Equal(t, 300.0, result.Height)
		assert.Equal(t, 50.0, result.OffsetHeight)
		assert.Equal(t, snap.ID, result.SnapshotID)
	})

	t.Run("missing element", func(t *testing.T) {
		_, err := session.Capture(ctx, "#absent", 1)
		assert.ErrorIs(t, err, ErrElementNotFound)
	})
}

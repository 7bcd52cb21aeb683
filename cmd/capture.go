// File: cmd/capture.go
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/contentheight/internal/estimator"
	"github.com/xkilldash9x/contentheight/internal/observability"
	"github.com/xkilldash9x/contentheight/internal/snapshot"
)

// newCaptureCmd creates the `capture` command, which records a snapshot of a
// live page for later offline estimation.
func newCaptureCmd(provider sessionProvider) *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Records the render subtree of a page element to a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.Named("capture")

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}

			url, _ := cmd.Flags().GetString("url")
			selector, _ := cmd.Flags().GetString("selector")
			depth, _ := cmd.Flags().GetInt("depth")
			out, _ := cmd.Flags().GetString("out")
			if depth < 0 {
				return fmt.Errorf("depth must be non-negative, got %d", depth)
			}

			session, err := provider.Open(ctx, cfg.Browser(), logger)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			defer func() {
				if err := session.Close(); err != nil {
					logger.Warn("Error closing browser session.", zap.Error(err))
				}
			}()

			if err := session.Navigate(ctx, url); err != nil {
				return err
			}
			snap, err := session.Capture(ctx, selector, depth)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(cfg.Browser().SnapshotDir, snap.ID+".json")
			}
			if err := snapshot.Save(out, snap); err != nil {
				return err
			}

			logger.Info("Snapshot captured.",
				zap.String("snapshot_id", snap.ID),
				zap.String("url", snap.URL),
				zap.String("path", out))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	captureCmd.Flags().String("url", "", "URL of the page to capture.")
	captureCmd.Flags().StringP("selector", "s", "", "CSS selector of the subtree root. Empty means the page body.")
	captureCmd.Flags().IntP("depth", "d", estimator.DefaultMaxDepth, "Number of child levels to record below the root.")
	captureCmd.Flags().StringP("out", "o", "", "Output path. Defaults to <snapshot_dir>/<id>.json.")
	_ = captureCmd.MarkFlagRequired("url")

	return captureCmd
}

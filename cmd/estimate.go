// File: cmd/estimate.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/contentheight/api/schemas"
	"github.com/xkilldash9x/contentheight/internal/config"
	"github.com/xkilldash9x/contentheight/internal/estimator"
	"github.com/xkilldash9x/contentheight/internal/observability"
	"github.com/xkilldash9x/contentheight/internal/snapshot"
)

// newEstimateCmd creates the `estimate` command. It measures one or more
// selectors either from a saved snapshot or from a live page.
func newEstimateCmd(provider sessionProvider) *cobra.Command {
	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimates the content height of elements in a snapshot or a live page",
		Example: `  contentheight estimate --url https://example.com --selector main --preset precise
  contentheight estimate --snapshot page.json --selector '#feed' --selector ref:12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.Named("estimate")

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			if err := applyEstimationFlags(cmd, cfg); err != nil {
				return err
			}
			est := cfg.Estimation()
			estCfg, err := est.Resolve()
			if err != nil {
				return err
			}
			if err := est.Validate(); err != nil {
				return fmt.Errorf("invalid estimation flags: %w", err)
			}

			snapPath, _ := cmd.Flags().GetString("snapshot")
			urls, _ := cmd.Flags().GetStringArray("url")
			selectors, _ := cmd.Flags().GetStringArray("selector")
			if len(selectors) == 0 {
				selectors = []string{""}
			}

			var results []schemas.HeightEstimate
			switch {
			case snapPath != "" && len(urls) > 0:
				return errors.New("--snapshot and --url are mutually exclusive")
			case snapPath != "":
				results, err = estimateSnapshot(ctx, snapPath, selectors, estCfg, est.Concurrency, logger)
			case len(urls) > 0:
				save, _ := cmd.Flags().GetBool("save")
				results, err = estimateLive(ctx, provider, cfg.Browser(), urls, selectors, estCfg, save, logger)
			default:
				return errors.New("one of --snapshot or --url is required")
			}
			if err != nil {
				return err
			}

			for i := range results {
				results[i].Preset = presetLabel(est)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	estimateCmd.Flags().String("snapshot", "", "Path of a snapshot file to measure.")
	estimateCmd.Flags().StringArray("url", nil, "URL of a page to load and measure. Repeatable; pages share one browser.")
	estimateCmd.Flags().StringArrayP("selector", "s", nil, "Element to measure. Repeatable. Empty means the page body or snapshot root.")
	estimateCmd.Flags().Bool("save", false, "Save the snapshots captured in --url mode to the snapshot directory.")

	addEstimationFlags(estimateCmd)
	return estimateCmd
}

// addEstimationFlags registers the flags that override the estimation section
// of the config.
func addEstimationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("preset", "p", "", "Estimation preset: fast, standard, precise or gridOptimized. (Overrides config/env)")
	cmd.Flags().IntP("max-depth", "d", 0, "Maximum recursion depth. (Overrides config/env)")
	cmd.Flags().Bool("margins", false, "Include vertical margins of direct children. (Overrides config/env)")
	cmd.Flags().Bool("padding", false, "Add the container's vertical padding. (Overrides config/env)")
	cmd.Flags().Bool("scroll-height", false, "Use scroll height instead of offset height as the native metric. (Overrides config/env)")
	cmd.Flags().StringSlice("layout-types", nil, "Display types eligible for deep recursion. Pass an empty value to disable. (Overrides config/env)")
	cmd.Flags().IntP("concurrency", "j", 0, "Number of selectors measured at once in snapshot mode. (Overrides config/env)")
}

// applyEstimationFlags copies explicitly set flags into cfg. Flags left at
// their zero defaults must not clobber preset or config values.
func applyEstimationFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("preset") {
		v, err := flags.GetString("preset")
		if err != nil {
			return err
		}
		cfg.SetEstimationPreset(v)
	}
	if flags.Changed("max-depth") {
		v, err := flags.GetInt("max-depth")
		if err != nil {
			return err
		}
		cfg.SetEstimationMaxDepth(v)
	}
	if flags.Changed("concurrency") {
		v, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.SetEstimationConcurrency(v)
	}
	if flags.Changed("margins") {
		v, err := flags.GetBool("margins")
		if err != nil {
			return err
		}
		cfg.EstimationCfg.IncludeMargins = &v
	}
	if flags.Changed("padding") {
		v, err := flags.GetBool("padding")
		if err != nil {
			return err
		}
		cfg.EstimationCfg.IncludePadding = &v
	}
	if flags.Changed("scroll-height") {
		v, err := flags.GetBool("scroll-height")
		if err != nil {
			return err
		}
		cfg.EstimationCfg.UseScrollHeight = &v
	}
	if flags.Changed("layout-types") {
		v, err := flags.GetStringSlice("layout-types")
		if err != nil {
			return err
		}
		if v == nil {
			v = []string{}
		}
		cfg.EstimationCfg.LayoutTypes = v
	}
	return nil
}

func presetLabel(est config.EstimationConfig) string {
	if est.Preset == "" {
		return estimator.PresetStandard
	}
	return est.Preset
}

// estimateSnapshot measures selectors against a saved snapshot. Selectors that
// match nothing are reported in their result instead of failing the batch.
func estimateSnapshot(ctx context.Context, path string, selectors []string, cfg estimator.Config, concurrency int, logger *zap.Logger) ([]schemas.HeightEstimate, error) {
	snap, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	host, err := snapshot.NewHost(snap)
	if err != nil {
		return nil, err
	}

	results := make([]schemas.HeightEstimate, len(selectors))
	var roots []estimator.Element
	var slots []int
	for i, sel := range selectors {
		results[i] = schemas.HeightEstimate{Selector: sel, SnapshotID: snap.ID}
		node, err := host.Find(sel)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		results[i].OffsetHeight = node.OffsetHeight
		results[i].ScrollHeight = node.ScrollHeight
		levels, complete, err := host.CapturedLevels(node)
		if err != nil {
			return nil, err
		}
		if !complete && levels < cfg.MaxDepth {
			results[i].Warning = fmt.Sprintf("snapshot holds %d levels below %q but max depth is %d; deeper content is read from the native metric", levels, sel, cfg.MaxDepth)
			logger.Warn("Snapshot is shallower than the requested max depth.",
				zap.String("selector", sel),
				zap.Int("captured_levels", levels),
				zap.Int("max_depth", cfg.MaxDepth),
				zap.Int("effective_depth", levels))
		}
		roots = append(roots, node)
		slots = append(slots, i)
	}

	heights, err := estimator.New(host, logger).EstimateAll(ctx, roots, cfg, concurrency)
	if err != nil {
		return nil, err
	}
	for j, h := range heights {
		results[slots[j]].Height = h
	}

	logger.Info("Estimated snapshot selectors.",
		zap.String("snapshot_id", snap.ID),
		zap.Int("selectors", len(selectors)),
		zap.Int("measured", len(roots)))
	return results, nil
}

// estimateLive loads each URL in turn in one browser session and measures
// every selector against it.
func estimateLive(ctx context.Context, provider sessionProvider, browserCfg config.BrowserConfig, urls, selectors []string, cfg estimator.Config, save bool, logger *zap.Logger) ([]schemas.HeightEstimate, error) {
	session, err := provider.Open(ctx, browserCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Error closing browser session.", zap.Error(err))
		}
	}()

	results := make([]schemas.HeightEstimate, 0, len(urls)*len(selectors))
	for _, url := range urls {
		if err := session.Navigate(ctx, url); err != nil {
			return nil, err
		}
		for _, sel := range selectors {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result, snap, err := session.Estimate(ctx, sel, cfg)
			if err != nil {
				// Missing elements are per-selector results; anything else aborts.
				if snap != nil || !isNotFound(err) {
					return nil, err
				}
				result.Error = err.Error()
			}
			result.URL = url
			if save && snap != nil {
				path := filepath.Join(browserCfg.SnapshotDir, snap.ID+".json")
				if err := snapshot.Save(path, snap); err != nil {
					return nil, err
				}
				logger.Info("Saved snapshot.", zap.String("path", path))
			}
			results = append(results, result)
		}
	}
	return results, nil
}

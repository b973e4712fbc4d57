package cmd

import (
	"fmt"

	"github.com/nholloway/viewmill/core/logger"
	"github.com/nholloway/viewmill/core/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile views as they change",
	Long:  `Watches the views root and eagerly recompiles changed views, reporting compile errors as you edit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cc, vc, err := setupApp()
		if err != nil {
			return err
		}

		fw, err := watcher.NewFileWatcher(cfg.Views.Root, cfg.Watch.Exclude, cc)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer fw.Close()

		fw.FileWatcher.AddOnStartFunc(func() error {
			logger.Info("Watching %s for view changes", cfg.Views.Root)
			return nil
		})
		fw.FileWatcher.AddOnChangeFunc(func(changed []string) error {
			for _, view := range changed {
				result, err := cc.GetOrAdd(view, vc.Compile)
				if err != nil {
					logger.Error("Compile failed for %s: %v", view, err)
					continue
				}
				if !result.Found() {
					logger.Warn("View removed: %s", view)
					continue
				}
				logger.Info("Recompiled %s", view)
			}
			cc.LogStats()
			return nil
		})
		fw.FileWatcher.AddOnCloseFunc(func() error {
			logger.Info("Stopping watcher")
			return nil
		})

		return fw.Watch()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

package cmd

import (
	"os"

	"github.com/nholloway/viewmill/core/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "viewmill",
	Short: "A compiling view server with change-aware caching.",
	Long: `Viewmill compiles template views on demand and caches the result until
the view file, or any ancestor _imports file that shapes it, changes on
disk. Render views once, serve them over HTTP, or run a dev loop that
recompiles as you edit.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		if logfile != "" {
			f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				logger.Warn("Cannot open logfile %s: %v", logfile, err)
				return
			}
			logger.AddWriterForAll(f)
		}
	},
}

var logfile string
var verbose bool

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

package cmd

import (
	"fmt"

	"github.com/nholloway/viewmill/core/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered views over HTTP",
	Long:  `Starts the dev server. Each request compiles its view through the cache, so repeated requests are served from memory until the view or an ancestor import file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cc, vc, err := setupApp()
		if err != nil {
			return err
		}

		srv := server.NewServer(cfg, cc, vc)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/nholloway/viewmill/core/cache"
	"github.com/nholloway/viewmill/core/compiler"
	"github.com/nholloway/viewmill/core/logger"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <view>",
	Short: "Compile and render a single view to stdout",
	Long:  `Compiles the given view (with its ancestor import files) and writes the rendered output to stdout.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetErrorWriter()

		_, cc, vc, err := setupApp()
		if err != nil {
			return err
		}

		result, err := cc.GetOrAdd(args[0], vc.Compile)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", args[0], err)
		}
		if result == cache.NotFound {
			return fmt.Errorf("view not found: %s", args[0])
		}

		return compiler.Render(os.Stdout, result.Artifact, nil)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

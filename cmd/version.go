package cmd

import (
	"fmt"

	"github.com/nholloway/viewmill/core/version"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of Viewmill",
	Long:  `Displays the version of Viewmill.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Viewmill %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nholloway/viewmill/core/logger"
	"github.com/spf13/cobra"
)

var (
	force bool
)

const configTemplate = `app_name: %s
views:
  root: views
  import_file: _imports.tmpl
  precompiled: []
server:
  host: localhost
  port: 8080
watch:
  exclude: []
`

const sampleImports = `{{define "greeting"}}Hello{{end}}
`

const sampleIndex = `{{template "greeting"}}, {{default "world" .name}}!
`

var initCmd = &cobra.Command{
	Use:   "init <dir>",
	Short: "Initialize a new viewmill project",
	Long:  `Creates viewmill.yaml and a starter views directory with a root import file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("init called")
		dir := args[0]
		if _, err := os.Stat(dir); err == nil {
			if !force {
				fmt.Printf("Directory %s already exists. Use --force to overwrite.\n", dir)
				return nil
			}
			logger.Debug("Directory %s already exists. Overwriting.", dir)
			os.RemoveAll(dir)
		}

		viewsDir := filepath.Join(dir, "views")
		if err := os.MkdirAll(viewsDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s: %w", viewsDir, err)
		}

		files := map[string]string{
			filepath.Join(dir, "viewmill.yaml"):      fmt.Sprintf(configTemplate, filepath.Base(dir)),
			filepath.Join(viewsDir, "_imports.tmpl"): sampleImports,
			filepath.Join(viewsDir, "index.tmpl"):    sampleIndex,
		}
		for path, content := range files {
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}

		fmt.Printf("Successfully generated project: %s\n", dir)
		fmt.Printf("Next Steps:\n")
		fmt.Printf("  - cd %s\n", dir)
		fmt.Printf("  - viewmill serve\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing files")
}

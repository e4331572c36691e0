package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/secregistry/internal/config"
)

//go:embed templates/secregistry.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a secregistry configuration file",
		Long: `Init creates a commented .secregistry configuration file in the current directory.

The generated file documents:
- Index categories to skip
- Headers and cookies sent to each host
- URL patterns to ignore or follow

Examples:
  # Create .secregistry in current directory
  secregistry init

  # Create config file at a specific path
  secregistry init -o myconfig.yaml

  # Force overwrite existing file
  secregistry init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/secregistry.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Cookies may be kept in this file.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Categories to skip")
	fmt.Fprintln(out, "  - Cookies and headers per host")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")

	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for secregistry.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secregistry",
		Short: "Scraper of the Thai SEC business operator registry",
		Long: `secregistry walks the Thai SEC list of business operators and extracts
one record per licensed company: address, capital, licenses, major
shareholders, executives, fund managers, compliance heads and former names.

Records are written as JSON lines on stdout, or as a Markdown document.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the context
// of the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

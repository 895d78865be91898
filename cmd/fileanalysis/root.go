package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/sh3r4rd/file_analysis/internal/config"
)

type cli struct {
	configFile string
	server     string
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "fileanalysis",
		Short:         "Asynchronous CSV/JSONL file analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "Config file (environment variables take precedence)")
	rootCmd.PersistentFlags().StringVar(&c.server, "server", "", "API base URL for submit and poll (default PUBLIC_BASE_URL)")

	rootCmd.AddCommand(
		newServeCommand(c),
		newSubmitCommand(c),
		newPollCommand(c),
		newAnalyzeCommand(),
	)
	return rootCmd
}

func (c *cli) loadConfig() (*config.Config, error) {
	return config.Load(c.configFile)
}

func (c *cli) serverURL(cfg *config.Config) string {
	if c.server != "" {
		return c.server
	}
	return cfg.PublicBaseURL
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

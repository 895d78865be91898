package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sh3r4rd/file_analysis/internal/analysis"
	"github.com/sh3r4rd/file_analysis/internal/client"
	"github.com/sh3r4rd/file_analysis/internal/config"
	"github.com/sh3r4rd/file_analysis/internal/model"
)

func (c *cli) newClient(cfg *config.Config) *client.Client {
	return client.New(c.serverURL(cfg), client.WithPolling(cfg.PollInterval, cfg.PollMaxAttempts))
}

func newSubmitCommand(c *cli) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Upload a file and wait for its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])
			if contentType == "" {
				contentType = analysis.ContentTypeFor(name)
			}

			rec, err := c.newClient(cfg).Submit(cmd.Context(), name, contentType, data)
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type to declare (default from the file extension)")
	return cmd
}

func newPollCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "poll <fileId>",
		Short: "Wait for the result of an earlier upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			rec, err := c.newClient(cfg).PollResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		},
	}
}

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a local file without uploading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])
			rec := analysis.Analyze(model.NewSubmission(name, "").CorrelationID, name, analysis.ContentTypeFor(name), data)
			return printRecord(cmd, rec)
		},
	}
}

// printRecord writes rec as JSON and fails the command for error records.
func printRecord(cmd *cobra.Command, rec model.ResultRecord) error {
	if err := printJSON(cmd.OutOrStdout(), rec); err != nil {
		return err
	}
	if rec.Status == model.StatusError {
		return fmt.Errorf("analysis failed: %s", rec.Error)
	}
	return nil
}


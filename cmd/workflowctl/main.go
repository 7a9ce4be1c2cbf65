// Command workflowctl is a reference CLI exercising the Workflow Handle
// SDK end to end: loading a document, listing and describing its
// inputs, and submitting it for execution.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"workflow-sdk/pkg/config"
	"workflow-sdk/services/fields"
)

var (
	configPath string
	baseURL    string
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(logHandler))

	root := &cobra.Command{
		Use:   "workflowctl",
		Short: "Drive workflow documents against a server using the Workflow Handle SDK",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "server base URL (overrides config)")

	root.AddCommand(newInspectCmd(), newSubmitCmd())

	if err := root.Execute(); err != nil {
		slog.Error("workflowctl: command failed", "error", err)
		os.Exit(1)
	}
}

func loadOptions() (config.Options, error) {
	opts, err := config.Load(configPath)
	if err != nil {
		return config.Options{}, err
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return *opts, nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document.json>",
		Short: "List a document's inputs and the field kind each would be classified as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			registry := fields.NewRegistry()
			fields.RegisterBuiltins(registry)

			snap, err := loadSnapshot(data)
			if err != nil {
				return err
			}

			for _, d := range inspectDescriptors(snap, registry) {
				fmt.Printf("[%d] %s.%s (%s) required=%v label=%q\n",
					d.InputIndex, d.NodeID, d.FieldName, d.Field.Kind(), d.Required, d.Label)
				fmt.Printf("      %s\n", d.Field.Describe())
			}
			return nil
		},
	}
}

func newSubmitCmd() *cobra.Command {
	var timeout time.Duration
	var runs int

	cmd := &cobra.Command{
		Use:   "submit <document.json>",
		Short: "Submit a document's current inputs and wait for completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			opts, err := loadOptions()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry := fields.NewRegistry()
			fields.RegisterBuiltins(registry)

			client, err := newClient(opts, registry)
			if err != nil {
				return err
			}

			handle, err := client.LoadDocument(data)
			if err != nil {
				return fmt.Errorf("load document: %w", err)
			}

			if err := handle.ValidateAll(); err != nil {
				return fmt.Errorf("document failed validation: %w", err)
			}

			ctx := context.Background()
			_, status, outputs, err := submitSync(ctx, handle, timeout, runs)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}

			slog.Info("workflowctl: submission finished", "status", status)
			out, _ := json.MarshalIndent(outputs, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for completion")
	cmd.Flags().IntVar(&runs, "runs", 1, "number of runs in the batch")
	return cmd
}

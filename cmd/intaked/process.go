package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var processSource string

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Process one document and print the triage record",
	Long: `Process one document and print the triage record as JSON.

Reads document text from a file, from stdin, or converts a remote
document first when --source is given.

Examples:
  # Process a text file
  intaked process fax.txt

  # Process from stdin
  cat fax.txt | intaked process -

  # Convert a fax PDF through the sidecar, then process
  intaked process --source https://faxes.example.com/doc-1.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processSource, "source", "", "document URL or path for the conversion sidecar")
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	var text string
	switch {
	case processSource != "":
		text, err = a.converter.Convert(ctx, processSource)
		if err != nil {
			return err
		}
	case len(args) == 0 || args[0] == "-":
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading from stdin: %w", err)
		}
		text = string(content)
	default:
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file %s: %w", args[0], err)
		}
		text = string(content)
	}

	outcome, err := a.pipeline.Process(ctx, text)
	if err != nil {
		return err
	}

	out := struct {
		Record         any               `json:"record"`
		RequiresReview bool              `json:"requires_review"`
		Failures       map[string]string `json:"failures,omitempty"`
	}{
		Record:         outcome.Record,
		RequiresReview: outcome.Record.RequiresReview(),
		Failures:       outcome.FailureSummary(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/intaked/internal/memory"
)

var correctFields map[string]string

var correctCmd = &cobra.Command{
	Use:   "correct [file]",
	Short: "File an operator correction for a document",
	Long: `File an operator correction for a document. The document text is
read from a file or stdin; corrected fields are given as --set flags.

Future documents similar enough to this one get the corrected fields
applied automatically.

Examples:
  # Correct the category and provider for a fax
  intaked correct fax.txt --set category="Imaging" --set provider_name="Asim Ali"

  # From stdin
  cat fax.txt | intaked correct - --set category="Labs"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCorrect,
}

func init() {
	correctCmd.Flags().StringToStringVar(&correctFields, "set", nil, "field=value pairs to remember")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	if len(correctFields) == 0 {
		return fmt.Errorf("at least one --set field=value is required")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return fmt.Errorf("correction memory is not available")
	}

	var content []byte
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file %s: %w", args[0], err)
		}
	}

	overrides := make(memory.Overrides, len(correctFields))
	for field, value := range correctFields {
		overrides[field] = value
	}

	if err := a.store.Add(cmd.Context(), string(content), overrides); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored correction with %d field(s)\n", len(overrides))
	return nil
}

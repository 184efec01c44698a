package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/platform/config"
	"github.com/p-n-ai/pai-finance/internal/platform/logging"
)

const defaultOntologyPath = "./financial_analysis_enhanced.owl"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "finctl",
		Short:         "Inspect financial analysis learning content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), config.LogConfig{Level: level, Format: "text"}))
		},
	}

	root.PersistentFlags().String("ontology", defaultOntologyPath, "Path to the OWL ontology")
	root.PersistentFlags().String("fallback", "", "Directory of fallback YAML files (default: embedded table)")
	root.PersistentFlags().Bool("fallback-only", false, "Skip the ontology and serve the fallback table")
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newConceptsCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newCalcCmd())
	return root
}

// openStore opens content using the persistent flags.
func openStore(cmd *cobra.Command) (content.Store, error) {
	ontology, _ := cmd.Flags().GetString("ontology")
	fallback, _ := cmd.Flags().GetString("fallback")
	fallbackOnly, _ := cmd.Flags().GetBool("fallback-only")
	return content.Open(content.Options{
		OntologyPath: ontology,
		FallbackPath: fallback,
		FallbackOnly: fallbackOnly,
	})
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// Package cli implements the schemac command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemac",
		Short: "Compile JSON Schema and OpenAPI documents into normalized, named schemas",
		Long: `schemac loads JSON Schema (draft-04 to 2020-12), OpenAPI 3.0/3.1 and
Swagger 2.0 documents, follows every reference, rewrites the schemas to a
normal form and gives each one a unique name.

Inputs are URLs or local file paths.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("dialect", "2020-12", "Dialect for documents that do not declare one")
	rootCmd.PersistentFlags().Int("max-iterations", 100, "Maximum number of normalization passes")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: error|warn|info|debug")

	compileCmd := &cobra.Command{
		Use:   "compile <location...>",
		Short: "Compile schemas and print them as an OpenAPI 3.1 components document",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunCompile,
	}
	compileCmd.Flags().StringP("out", "o", "", "Write the document to a file instead of stdout")
	compileCmd.Flags().String("title", "schemac", "Info title of the generated document")
	compileCmd.Flags().Bool("locations", false, "Annotate each schema with its source location")

	namesCmd := &cobra.Command{
		Use:   "names <location...>",
		Short: "List the reachable schemas with their assigned names",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunNames,
	}

	lintCmd := &cobra.Command{
		Use:   "lint <location...>",
		Short: "Check documents against their meta-schema or the OpenAPI model",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunLint,
	}
	lintCmd.Flags().Int("jobs", 4, "Number of documents checked concurrently")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schemac %s\n", version)
		},
	}

	rootCmd.AddCommand(
		compileCmd,
		namesCmd,
		lintCmd,
		versionCmd,
	)

	return rootCmd
}

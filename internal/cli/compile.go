package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/speakeasy-api/schemac/compiler"
	"github.com/speakeasy-api/schemac/pkg/export"
)

func RunCompile(cmd *cobra.Command, args []string) error {
	res, err := compileArgs(cmd, args)
	if err != nil {
		return err
	}

	opt := export.DefaultOptions()
	if opt.Title, err = cmd.Flags().GetString("title"); err != nil {
		return fmt.Errorf("failed to read --title flag: %w", err)
	}
	if opt.Locations, err = cmd.Flags().GetBool("locations"); err != nil {
		return fmt.Errorf("failed to read --locations flag: %w", err)
	}
	doc, err := export.Document(cmd.Context(), res, opt)
	if err != nil {
		return reportError(cmd, err)
	}

	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to read --out flag: %w", err)
	}
	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(cmd.Context(), w, doc); err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
	return nil
}

func compileArgs(cmd *cobra.Command, args []string) (*compiler.Result, error) {
	opt, err := compilerOptions(cmd)
	if err != nil {
		return nil, err
	}
	roots, err := parseLocations(args)
	if err != nil {
		return nil, err
	}
	res, err := compiler.Compile(cmd.Context(), roots, opt)
	if err != nil {
		return nil, reportError(cmd, err)
	}
	return res, nil
}

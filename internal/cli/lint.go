package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/speakeasy-api/schemac/document"
	"github.com/speakeasy-api/schemac/location"
	"github.com/speakeasy-api/schemac/pkg/lint"
)

func RunLint(cmd *cobra.Command, args []string) error {
	opt, err := compilerOptions(cmd)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to read --jobs flag: %w", err)
	}
	roots, err := parseLocations(args)
	if err != nil {
		return err
	}

	// Each input gets its own context so that findings stay per document.
	results := make([]error, len(roots))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(jobs, 1))
	for i, root := range roots {
		g.Go(func() error {
			results[i] = lintOne(ctx, root, opt.DefaultDialect, opt.LogLevel)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, err := range results {
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "ok    %s\n", roots[i])
			continue
		}
		failed++
		fmt.Fprintf(cmd.OutOrStdout(), "fail  %s\n", roots[i])
		fmt.Fprint(cmd.OutOrStdout(), FormatError(err))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(roots))
	}
	return nil
}

func lintOne(ctx context.Context, root location.Location, dialect document.Dialect, level string) error {
	c := document.NewContext(document.WithDefaultDialect(dialect))
	if err := c.LoadRoot(ctx, root); err != nil {
		return err
	}
	return lint.Check(ctx, c, lint.Options{LogLevel: level})
}

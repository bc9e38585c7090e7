package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speakeasy-api/schemac/compiler"
	"github.com/speakeasy-api/schemac/document"
	"github.com/speakeasy-api/schemac/internal/logging"
	"github.com/speakeasy-api/schemac/location"
)

// compilerOptions maps the persistent flags onto compiler options. Logs go
// to the command's error stream.
func compilerOptions(cmd *cobra.Command) (compiler.Options, error) {
	opt := compiler.DefaultOptions()

	raw, err := cmd.Flags().GetString("dialect")
	if err != nil {
		return opt, fmt.Errorf("failed to read --dialect flag: %w", err)
	}
	d, ok := document.ParseDialect(raw)
	if !ok {
		return opt, fmt.Errorf("unsupported dialect %q (supported: draft-04, draft-06, draft-07, 2019-09, 2020-12, openapi-3.0, openapi-3.1, swagger-2.0)", raw)
	}
	opt.DefaultDialect = d

	if opt.MaxIterations, err = cmd.Flags().GetInt("max-iterations"); err != nil {
		return opt, fmt.Errorf("failed to read --max-iterations flag: %w", err)
	}
	if opt.MaxIterations < 1 {
		return opt, fmt.Errorf("--max-iterations must be at least 1")
	}

	if opt.LogLevel, err = cmd.Flags().GetString("log-level"); err != nil {
		return opt, fmt.Errorf("failed to read --log-level flag: %w", err)
	}
	opt.Logger = logging.New(logging.ParseLevel(opt.LogLevel), cmd.ErrOrStderr())
	return opt, nil
}

// parseLocations accepts absolute URLs, URNs and local paths.
func parseLocations(args []string) ([]location.Location, error) {
	out := make([]location.Location, 0, len(args))
	for _, arg := range args {
		loc, err := parseLocation(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

func parseLocation(arg string) (location.Location, error) {
	if strings.Contains(arg, "://") || strings.HasPrefix(arg, "urn:") {
		loc, err := location.Parse(arg)
		if err != nil {
			return location.Location{}, err
		}
		if !loc.IsAbsolute() {
			return location.Location{}, fmt.Errorf("%s is not an absolute location", arg)
		}
		return loc, nil
	}
	path, fragment, _ := strings.Cut(arg, "#")
	loc, err := location.FromFilePath(path)
	if err != nil {
		return location.Location{}, err
	}
	if fragment == "" {
		return loc, nil
	}
	return loc.JoinString("#" + fragment)
}

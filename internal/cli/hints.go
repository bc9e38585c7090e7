package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
)

var hints = map[schemaerrors.Kind]string{
	schemaerrors.FetchFailed:       `Check that the file exists or the URL is reachable. Relative references resolve against the document's $id, not its path.`,
	schemaerrors.ParseFailed:       `The text is not valid JSON or YAML. Files ending in .yaml or .yml are always read as YAML.`,
	schemaerrors.DocumentNotFound:  `Load the document as a root, or reference it from a document that is loaded.`,
	schemaerrors.ReferenceNotFound: `The reference points inside a loaded document at a node that does not exist. Check the JSON pointer after '#'.`,
	schemaerrors.AnchorNotFound:    `Declare the anchor with $anchor (or "$id": "#name" in draft-07 and earlier) in the target document.`,
	schemaerrors.DuplicateRoot:     `Two different documents claim the same location. Give one of them a distinct $id.`,
	schemaerrors.InvalidLocation:   `Use an absolute URL, a URN or a local file path.`,
	schemaerrors.UnknownDialect:    `Use a known $schema URI or pass --dialect for documents that do not declare one.`,
	schemaerrors.InvalidDocument:   `A schema must be an object or a boolean.`,
	schemaerrors.LintFailed:        `Fix the reported keyword so that the document matches its meta-schema.`,
}

// FormatError renders an error, or every error of an errors.List, with its
// location and a fix hint.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var list schemaerrors.List
	errs := []error{err}
	if errors.As(err, &list) {
		errs = list
	}

	var b strings.Builder
	for _, e := range errs {
		var se *schemaerrors.Error
		if !errors.As(e, &se) {
			fmt.Fprintf(&b, "- %s\n", e)
			continue
		}
		fmt.Fprintf(&b, "- %s\n", describe(se))
		if se.Location != "" {
			fmt.Fprintf(&b, "  Location: %s\n", se.Location)
		}
		if hint := hints[se.Kind]; hint != "" {
			fmt.Fprintf(&b, "  How to fix: %s\n", hint)
		}
	}
	return b.String()
}

func describe(se *schemaerrors.Error) string {
	msg := string(se.Kind)
	if se.Message != "" {
		msg += ": " + se.Message
	}
	if se.Err != nil {
		msg += ": " + strings.TrimSpace(se.Err.Error())
	}
	return msg
}

// reportError prints err with hints and returns a short error for the exit
// status.
func reportError(cmd *cobra.Command, err error) error {
	fmt.Fprint(cmd.ErrOrStderr(), FormatError(err))
	if kind, ok := schemaerrors.KindOf(err); ok {
		return fmt.Errorf("compilation failed: %s", kind)
	}
	return err
}

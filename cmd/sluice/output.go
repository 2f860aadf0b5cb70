package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sluice/internal/diag"
	"sluice/internal/driver"
	"sluice/internal/source"
)

// reportError renders a translation diagnostic with its source excerpt, or
// falls back to a plain message for ordinary errors.
func reportError(cmd *cobra.Command, files *source.FileSet, err error) {
	var de *diag.Error
	if errors.As(err, &de) {
		r := diag.NewRenderer(files, useColor(cmd))
		r.Render(os.Stderr, de.Diag)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

// resFiles extracts the file set from a possibly-failed run.
func resFiles(res *driver.Result) *source.FileSet {
	if res == nil {
		return nil
	}
	return res.Files
}

// emitResult writes the package in the requested form and the optional
// timing report.
func emitResult(cmd *cobra.Command, res *driver.Result, outPath, dump string) error {
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		fmt.Fprint(os.Stderr, res.Timer.Summary())
	}
	if outPath != "" {
		return driver.WriteIR(outPath, res.Package)
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), dump)
	return nil
}

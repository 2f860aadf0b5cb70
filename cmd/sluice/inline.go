package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sluice/internal/driver"
)

var inlineOut string

func init() {
	inlineCmd.Flags().StringVarP(&inlineOut, "output", "o", "", "write the flattened package here (default: overwrite input)")
}

var inlineCmd = &cobra.Command{
	Use:   "inline <file.sir>",
	Short: "Flatten invoke edges in a binary IR package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg, err := driver.ReadIR(args[0])
		if err != nil {
			return err
		}
		if err := pkg.InlineAll(); err != nil {
			return err
		}
		out := inlineOut
		if out == "" {
			out = args[0]
		}
		if err := driver.WriteIR(out, pkg); err != nil {
			return err
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		}
		return nil
	},
}

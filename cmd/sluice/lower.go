package main

import (
	"github.com/spf13/cobra"

	"sluice/internal/driver"
	"sluice/internal/ir"
)

var (
	lowerTop      string
	lowerMaxIters int
	lowerInline   bool
	lowerOut      string
)

func init() {
	lowerCmd.Flags().StringVar(&lowerTop, "top", "", "entry function name (overridden by a top annotation)")
	lowerCmd.Flags().IntVar(&lowerMaxIters, "max-unroll-iters", 0, "unrolled loop trip count ceiling (0 = default)")
	lowerCmd.Flags().BoolVar(&lowerInline, "inline", false, "flatten subroutine invokes after lowering")
	lowerCmd.Flags().StringVarP(&lowerOut, "output", "o", "", "write binary IR to this path instead of printing")
}

var lowerCmd = &cobra.Command{
	Use:   "lower <file>",
	Short: "Lower a source file in function mode",
	Long: `Lower translates the entry function into its dataflow graph. Channel
parameters become value parameters and the return value carries every
channel operation's outcome in schedule order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := driver.Lower(args[0], driver.Options{
			Top:            lowerTop,
			MaxUnrollIters: lowerMaxIters,
			Inline:         lowerInline,
		})
		if err != nil {
			reportError(cmd, resFiles(res), err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return err
		}
		return emitResult(cmd, res, lowerOut, ir.DumpPackage(res.Package))
	},
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sluice/internal/driver"
	"sluice/internal/ir"
)

var (
	runTop      string
	runMaxIters int
	runFn       string
)

func init() {
	runCmd.Flags().StringVar(&runTop, "top", "", "entry function name (overridden by a top annotation)")
	runCmd.Flags().IntVar(&runMaxIters, "max-unroll-iters", 0, "unrolled loop trip count ceiling (0 = default)")
	runCmd.Flags().StringVar(&runFn, "fn", "", "function to evaluate (default: the lowered entry)")
}

var runCmd = &cobra.Command{
	Use:   "run <file> [name=value ...]",
	Short: "Lower a source file and evaluate the result",
	Long: `Run lowers the entry function and executes its dataflow graph with the
given keyword arguments. Only scalar parameters can be set on the command
line; unset parameters default to zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := driver.Lower(args[0], driver.Options{
			Top:            runTop,
			MaxUnrollIters: runMaxIters,
			Inline:         true,
		})
		if err != nil {
			reportError(cmd, resFiles(res), err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return err
		}
		if timings, _ := cmd.Flags().GetBool("timings"); timings {
			fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
		}

		fn := pickFn(res.Package, runFn)
		if fn == nil {
			return fmt.Errorf("function %q not found in lowered package", runFn)
		}
		kwargs, err := parseArgs(fn, args[1:])
		if err != nil {
			return err
		}
		out, err := ir.NewEvaluator(res.Package).EvalFn(fn, kwargs)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func pickFn(pkg *ir.Package, name string) *ir.Fn {
	if name != "" {
		return pkg.Fn(name)
	}
	// The entry is added after its lowered subroutines.
	if len(pkg.Funcs) > 0 {
		return pkg.Funcs[len(pkg.Funcs)-1]
	}
	return nil
}

// parseArgs turns name=value pairs into keyword arguments typed by the
// function's parameters.
func parseArgs(fn *ir.Fn, pairs []string) (map[string]ir.Value, error) {
	widths := make(map[string]int, len(fn.Params))
	out := make(map[string]ir.Value, len(fn.Params))
	for _, pid := range fn.Params {
		p := fn.Node(pid)
		out[p.Name] = ir.ZeroOf(p.Type)
		if p.Type.IsBits() {
			widths[p.Name] = p.Type.Width
		}
	}
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not name=value", pair)
		}
		w, ok := widths[name]
		if !ok {
			return nil, fmt.Errorf("no scalar parameter %q", name)
		}
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", pair, err)
		}
		out[name] = ir.SignedValue(v, w)
	}
	return out, nil
}

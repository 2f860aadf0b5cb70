package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sluice/internal/diag"
	"sluice/internal/driver"
	"sluice/internal/ir"
	"sluice/internal/manifest"
)

var (
	blockTop         string
	blockManifest    string
	blockMaxIters    int
	blockInline      bool
	blockSingleValue bool
	blockOut         string
)

const blockBagCap = 64

func init() {
	blockCmd.Flags().StringVar(&blockTop, "top", "", "entry function name (overridden by a top annotation)")
	blockCmd.Flags().StringVar(&blockManifest, "manifest", "", "channel manifest (TOML)")
	blockCmd.Flags().IntVar(&blockMaxIters, "max-unroll-iters", 0, "unrolled loop trip count ceiling (0 = default)")
	blockCmd.Flags().BoolVar(&blockInline, "inline", false, "flatten subroutine invokes after lowering")
	blockCmd.Flags().BoolVar(&blockSingleValue, "all-single-value", false, "make every channel a direct single-value port")
	blockCmd.Flags().StringVarP(&blockOut, "output", "o", "", "write binary IR to this path (a directory for multi-block manifests) instead of printing")
	_ = blockCmd.MarkFlagRequired("manifest")
}

var blockCmd = &cobra.Command{
	Use:   "block <file>",
	Short: "Lower a source file into a hardware block",
	Long: `Block translates the entry function against a channel manifest into a
process: a fixed channel set plus a scheduled list of guarded sends and
receives over one activation body. A manifest with several [[block]]
entries lowers each block independently.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blocks, err := manifest.LoadAll(blockManifest)
		if err != nil {
			reportError(cmd, nil, err)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return err
		}
		if len(blocks) == 1 {
			res, err := driver.LowerBlock(args[0], blockManifest, driver.Options{
				Top:            blockTop,
				MaxUnrollIters: blockMaxIters,
				Inline:         blockInline,
				AllSingleValue: blockSingleValue,
			})
			if err != nil {
				reportError(cmd, resFiles(res), err)
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				return err
			}
			return emitResult(cmd, res, blockOut, ir.DumpPackage(res.Package))
		}
		return runBlocks(cmd, args[0], blocks)
	},
}

// runBlocks lowers every manifest block against the same source. Failures
// are collected and rendered together; the surviving blocks still emit.
func runBlocks(cmd *cobra.Command, path string, blocks []*manifest.Block) error {
	bag := diag.NewBag(blockBagCap)
	results, files, err := driver.LowerBlocks(cmd.Context(), path, blocks, driver.Options{
		Top:            blockTop,
		MaxUnrollIters: blockMaxIters,
		Inline:         blockInline,
		AllSingleValue: blockSingleValue,
		Reporter:       diag.BagReporter{Bag: bag},
	})
	if err != nil {
		reportError(cmd, files, err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return err
	}

	if blockOut != "" {
		if merr := os.MkdirAll(blockOut, 0o755); merr != nil {
			return merr
		}
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		if blockOut != "" {
			out := filepath.Join(blockOut, r.Top+driver.IRExt)
			if werr := driver.WriteIR(out, r.Package); werr != nil {
				return werr
			}
			continue
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			fmt.Fprint(cmd.OutOrStdout(), ir.DumpPackage(r.Package))
		}
	}
	if failed > 0 {
		r := diag.NewRenderer(files, useColor(cmd))
		r.RenderBag(os.Stderr, bag)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("%d of %d blocks failed", failed, len(results))
	}
	return nil
}
